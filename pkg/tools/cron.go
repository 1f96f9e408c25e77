package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/localloom/corebot/pkg/cron"
)

// ScheduleJobTool implements spec.md's `add_job(schedule, inbound_template) -> id`
// cron operation: it registers a new scheduled job and hands the model back
// the generated job ID so it can be referenced later for cancellation.
type ScheduleJobTool struct {
	store   *cron.Store
	channel string
	chatID  string
}

// NewScheduleJobTool creates a job-scheduling tool bound to store. channel
// and chatID seed the default destination for jobs created without one,
// updated per-turn via SetContext.
func NewScheduleJobTool(store *cron.Store) *ScheduleJobTool {
	return &ScheduleJobTool{store: store}
}

func (t *ScheduleJobTool) Name() string { return "schedule_job" }

func (t *ScheduleJobTool) Description() string {
	return "Schedule a recurring reminder or task using a standard 5-field cron expression (minute hour day-of-month month day-of-week). The content you provide will be delivered back to you as a synthetic user message when the schedule fires."
}

func (t *ScheduleJobTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"schedule": map[string]interface{}{
				"type":        "string",
				"description": "5-field cron expression, e.g. \"0 9 * * 1-5\" for weekdays at 9am",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The message content to synthesize as an inbound event when this job fires",
			},
		},
		"required": []string{"schedule", "content"},
	}
}

// SetContext records which channel/chat new jobs should fire into.
func (t *ScheduleJobTool) SetContext(channel, chatID string) {
	t.channel = channel
	t.chatID = chatID
}

func (t *ScheduleJobTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	schedule, _ := args["schedule"].(string)
	content, _ := args["content"].(string)
	if schedule == "" || content == "" {
		return ErrorResult("schedule and content are both required")
	}
	if !cron.ValidateSchedule(schedule) {
		return ErrorResultf("invalid cron schedule: %q", schedule)
	}

	job := cron.Job{
		ID:       uuid.NewString(),
		Schedule: schedule,
		Channel:  t.channel,
		ChatID:   t.chatID,
		Content:  content,
	}
	if err := t.store.Upsert(job); err != nil {
		return ErrorResultf("failed to schedule job: %v", err)
	}
	return Result(fmt.Sprintf("Scheduled job %s (%s).", job.ID, schedule))
}

// CancelJobTool implements spec.md's `remove_job(id) -> bool` cron operation.
type CancelJobTool struct {
	store *cron.Store
}

func NewCancelJobTool(store *cron.Store) *CancelJobTool {
	return &CancelJobTool{store: store}
}

func (t *CancelJobTool) Name() string { return "cancel_job" }

func (t *CancelJobTool) Description() string {
	return "Cancel a previously scheduled job by its ID."
}

func (t *CancelJobTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string", "description": "The job ID returned by schedule_job"},
		},
		"required": []string{"id"},
	}
}

func (t *CancelJobTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	id, _ := args["id"].(string)
	if id == "" {
		return ErrorResult("id is required")
	}

	removed, err := t.store.Delete(id)
	if err != nil {
		return ErrorResultf("failed to cancel job: %v", err)
	}
	if !removed {
		return Result(fmt.Sprintf("No job found with ID %s.", id))
	}
	return Result(fmt.Sprintf("Cancelled job %s.", id))
}

// ListJobsTool implements spec.md's `list_jobs() -> [CronJob]` cron operation.
type ListJobsTool struct {
	store *cron.Store
}

func NewListJobsTool(store *cron.Store) *ListJobsTool {
	return &ListJobsTool{store: store}
}

func (t *ListJobsTool) Name() string { return "list_jobs" }

func (t *ListJobsTool) Description() string {
	return "List all currently scheduled jobs."
}

func (t *ListJobsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *ListJobsTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	jobs := t.store.List()
	if len(jobs) == 0 {
		return Result("No scheduled jobs.")
	}

	out := "Scheduled jobs:\n"
	for _, j := range jobs {
		out += fmt.Sprintf("- %s: %q (%s)\n", j.ID, j.Schedule, j.Content)
	}
	return Result(out)
}
