package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the generation pipeline.
const (
	JobQueueKey       = "studio:jobs:queue"
	jobStateKeyFmt    = "studio:job:%s"
	jobRequestKeyFmt  = "studio:job:%s:request"
	progressChanFmt   = "studio:progress:%s"
	jobStateRetention = 24 * time.Hour
)

// JobStateKey returns the session state key for a job.
func JobStateKey(jobID string) string {
	return fmt.Sprintf(jobStateKeyFmt, jobID)
}

// JobRequestKey returns the request payload key for a job.
func JobRequestKey(jobID string) string {
	return fmt.Sprintf(jobRequestKeyFmt, jobID)
}

// ProgressChannel returns the pub/sub channel for a job's events.
func ProgressChannel(jobID string) string {
	return fmt.Sprintf(progressChanFmt, jobID)
}

// ProgressEvent is one pipeline update pushed to listeners.
type ProgressEvent struct {
	Type        string        `json:"type"`
	JobID       string        `json:"jobId"`
	Stage       string        `json:"stage,omitempty"`
	ShotIndex   int           `json:"shotIndex,omitempty"`
	ShotTotal   int           `json:"shotTotal,omitempty"`
	Success     bool          `json:"success,omitempty"`
	Detail      string        `json:"detail,omitempty"`
	Plan        *CreativePlan `json:"plan,omitempty"`
	SuccessRate string        `json:"successRate,omitempty"`
}

// Narrator is the narration stage as the worker sees it.
type Narrator interface {
	SynthesizeNarration(ctx context.Context, script, voice string) ([]byte, error)
}

// SessionStore persists finished runs, loads brand profiles and tracks
// the user's in-flight session.
type SessionStore interface {
	RecordSession(ctx context.Context, session *GenerationSession) error
	LoadProfile(ctx context.Context, userID string) (*BrandProfile, error)
	SetActive(userID string, session *GenerationSession)
	ClearActive(userID string)
}

// Worker drains the job queue and runs the full pipeline per job.
type Worker struct {
	rdb      *redis.Client
	service  *Service
	narrator Narrator
	store    SessionStore
}

func NewWorker(rdb *redis.Client, service *Service, narrator Narrator, store SessionStore) *Worker {
	return &Worker{
		rdb:      rdb,
		service:  service,
		narrator: narrator,
		store:    store,
	}
}

// Start blocks on the queue forever. Run it in a goroutine.
func (w *Worker) Start() {
	log.Println("🔄 Studio queue worker starting...")
	log.Printf("👀 Watching queue: %s", JobQueueKey)

	ctx := context.Background()

	for {
		result, err := w.rdb.BRPop(ctx, 0, JobQueueKey).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0] is the queue name, result[1] the job ID
		jobID := result[1]
		log.Printf("🎯 Received new job: %s", jobID)

		go w.processJob(ctx, jobID)
	}
}

func (w *Worker) processJob(ctx context.Context, jobID string) {
	log.Printf("🚀 Processing job: %s", jobID)

	raw, err := w.rdb.Get(ctx, JobRequestKey(jobID)).Result()
	if err != nil {
		log.Printf("❌ Failed to fetch job request %s: %v", jobID, err)
		return
	}

	var req GenerationRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		log.Printf("❌ Failed to parse job request %s: %v", jobID, err)
		return
	}

	// The job context is cancelled when the client flags the job
	jobCtx, stopWatch := watchCancellation(ctx, w.rdb, jobID)
	defer stopWatch()

	session := &GenerationSession{
		ID:        jobID,
		UserID:    req.UserID,
		Request:   req,
		Status:    StatusProcessing,
		CreatedAt: time.Now(),
	}
	w.saveSession(ctx, session)
	if w.store != nil {
		w.store.SetActive(req.UserID, session)
		defer w.store.ClearActive(req.UserID)
	}
	w.publish(ctx, ProgressEvent{Type: "stage", JobID: jobID, Stage: "planning"})

	// Phase 1: brand profile + creative plan
	var profile *BrandProfile
	if w.store != nil {
		profile, err = w.store.LoadProfile(ctx, req.UserID)
		if err != nil {
			log.Printf("⚠️  Failed to load brand profile for %s: %v", req.UserID, err)
		}
	}

	plan, err := w.service.BuildPlan(jobCtx, req, profile)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			w.cancelJob(ctx, session)
			return
		}
		w.failJob(ctx, session, fmt.Sprintf("planning failed: %v", err))
		return
	}
	session.Plan = plan
	w.saveSession(ctx, session)
	w.publish(ctx, ProgressEvent{Type: "plan_ready", JobID: jobID, Plan: plan})

	// Phase 2: sequential shot loop
	w.publish(ctx, ProgressEvent{Type: "stage", JobID: jobID, Stage: "shots"})
	shotTotal := len(plan.ShotPrompts)
	if req.Style == StyleTreadmill && req.Assets != nil {
		shotTotal = len(req.Assets.FashionItems)
	}

	shots, err := w.service.GenerateShots(jobCtx, jobID, req, plan, func(result ShotResult) {
		w.publish(ctx, ProgressEvent{
			Type:      "shot",
			JobID:     jobID,
			ShotIndex: result.Index,
			ShotTotal: shotTotal,
			Success:   result.Success,
			Detail:    result.ErrorDetail,
		})
	})
	session.Shots = shots
	if err != nil {
		if errors.Is(err, context.Canceled) {
			w.cancelJob(ctx, session)
			return
		}
		w.failJob(ctx, session, err.Error())
		return
	}

	// Phase 3: motion suggestions (concurrent, best effort)
	w.publish(ctx, ProgressEvent{Type: "stage", JobID: jobID, Stage: "motion"})
	session.MotionPrompts = w.service.SuggestMotion(jobCtx, shots)
	w.saveSession(ctx, session)

	// Phase 4: narration (optional)
	if req.Narrate && plan.Script != "" && w.narrator != nil {
		w.publish(ctx, ProgressEvent{Type: "stage", JobID: jobID, Stage: "narration"})
		wav, err := w.narrator.SynthesizeNarration(jobCtx, plan.Script, req.Voice)
		if err != nil {
			log.Printf("⚠️  Narration failed for job %s: %v", jobID, err)
			w.publish(ctx, ProgressEvent{Type: "narration_failed", JobID: jobID, Detail: err.Error()})
		} else {
			session.NarrationWAV = wav
		}
	}

	// Phase 5: finish + history
	session.Status = StatusCompleted
	w.saveSession(ctx, session)

	if w.store != nil {
		if err := w.store.RecordSession(ctx, session); err != nil {
			log.Printf("⚠️  Failed to record history for job %s: %v", jobID, err)
		}
	}

	w.publish(ctx, ProgressEvent{
		Type:        "completed",
		JobID:       jobID,
		SuccessRate: fmt.Sprintf("%d/%d", session.SuccessCount(), len(shots)),
	})
	log.Printf("✅ Job %s completed: %d/%d shots", jobID, session.SuccessCount(), len(shots))
}

// cancelJob preserves whatever rendered before the client aborted.
func (w *Worker) cancelJob(ctx context.Context, session *GenerationSession) {
	session.Status = StatusCancelled
	w.saveSession(ctx, session)
	w.publish(ctx, ProgressEvent{Type: "cancelled", JobID: session.ID})
	log.Printf("🛑 Job %s cancelled by user: %d shots kept", session.ID, session.SuccessCount())
}

func (w *Worker) failJob(ctx context.Context, session *GenerationSession, detail string) {
	session.Status = StatusFailed
	session.ErrorDetail = detail
	w.saveSession(ctx, session)
	w.publish(ctx, ProgressEvent{Type: "failed", JobID: session.ID, Detail: detail})
	log.Printf("❌ Job %s failed: %s", session.ID, detail)
}

func (w *Worker) saveSession(ctx context.Context, session *GenerationSession) {
	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("⚠️  Failed to marshal session %s: %v", session.ID, err)
		return
	}
	if err := w.rdb.Set(ctx, JobStateKey(session.ID), data, jobStateRetention).Err(); err != nil {
		log.Printf("⚠️  Failed to save session %s: %v", session.ID, err)
	}
}

func (w *Worker) publish(ctx context.Context, event ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := w.rdb.Publish(ctx, ProgressChannel(event.JobID), data).Err(); err != nil {
		log.Printf("⚠️  Failed to publish progress for %s: %v", event.JobID, err)
	}
}
