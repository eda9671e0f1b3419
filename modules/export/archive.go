package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log"
	"strings"

	"engagepro-studio-server/modules/studio"
)

// ScriptFileName and friends fix the archive layout the client expects.
const (
	ScriptFileName      = "Naskah_dan_Metadata.txt"
	AudioFileName       = "audio.wav"
	StoryboardFolder    = "Gambar_Storyboard"
	SuggestionsFileName = "Saran_Animasi.txt"
)

// PreconditionError means there is nothing exportable yet.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("export precondition not met: %s", e.Reason)
}

// Bundle is everything the assembler needs from a finished session.
type Bundle struct {
	Script        string
	Keywords      []string
	Description   string
	Shots         []studio.ShotResult
	MotionPrompts []*string
	NarrationWAV  []byte
}

// BuildZip assembles the download archive. Successful shots are
// numbered 1..n in success order, failed slots leave no gap in the
// numbering. Optional sections are simply absent when empty.
func BuildZip(b Bundle) ([]byte, error) {
	successCount := 0
	for _, shot := range b.Shots {
		if shot.Success {
			successCount++
		}
	}
	if successCount == 0 {
		return nil, &PreconditionError{Reason: "no successful shots to export"}
	}

	log.Printf("📦 Building ZIP: %d/%d shots, audio=%v", successCount, len(b.Shots), len(b.NarrationWAV) > 0)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if script := scriptFileContent(b); script != "" {
		if err := writeZipFile(zw, ScriptFileName, []byte(script)); err != nil {
			return nil, err
		}
	}

	if len(b.NarrationWAV) > 0 {
		if err := writeZipFile(zw, AudioFileName, b.NarrationWAV); err != nil {
			return nil, err
		}
	}

	var suggestions strings.Builder
	suggestions.WriteString("SARAN ANIMASI:\n\n")
	hasSuggestion := false

	imageCount := 0
	for i, shot := range b.Shots {
		if !shot.Success || len(shot.ImageData) == 0 {
			continue
		}
		imageCount++

		name := fmt.Sprintf("%s/gambar_%d.png", StoryboardFolder, imageCount)
		if err := writeZipFile(zw, name, shot.ImageData); err != nil {
			return nil, err
		}

		if i < len(b.MotionPrompts) && b.MotionPrompts[i] != nil {
			suggestions.WriteString(fmt.Sprintf("Gambar %d: %s\n", imageCount, *b.MotionPrompts[i]))
			hasSuggestion = true
		}
	}

	if hasSuggestion {
		if err := writeZipFile(zw, SuggestionsFileName, []byte(suggestions.String())); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize ZIP: %w", err)
	}

	log.Printf("✅ ZIP built: %d bytes", buf.Len())
	return buf.Bytes(), nil
}

// scriptFileContent renders the metadata + script text file. Returns
// "" when there is nothing to write.
func scriptFileContent(b Bundle) string {
	var sb strings.Builder
	if b.Description != "" || len(b.Keywords) > 0 {
		sb.WriteString(fmt.Sprintf("Deskripsi TikTok:\n%s\n\n", b.Description))
		sb.WriteString(fmt.Sprintf("Keywords:\n%s\n\n", strings.Join(b.Keywords, ", ")))
		sb.WriteString("====================\n\n")
	}
	if b.Script != "" {
		sb.WriteString(fmt.Sprintf("Naskah Video:\n%s", b.Script))
	}
	return sb.String()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s in ZIP: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s in ZIP: %w", name, err)
	}
	return nil
}
