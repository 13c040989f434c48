package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"sndctl/internal/api"
	"sndctl/internal/clock"
	"sndctl/internal/logging"
)

// State is the lifecycle position of the current upload attempt.
type State int

const (
	// StateEmpty means no file is selected and no cooldown is active.
	StateEmpty State = iota
	// StateSelected means a file passed local validation and can be
	// submitted once the name is confirmed.
	StateSelected
	// StateSubmitting means the transfer is in flight.
	StateSubmitting
	// StateSucceeded means the last attempt completed and was cleared.
	StateSucceeded
	// StateFailed means the last attempt was rejected, locally or by the
	// server, for a reason other than rate limiting.
	StateFailed
	// StateCoolingDown means a server-dictated cooldown is active and
	// submission is disallowed until it expires.
	StateCoolingDown
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSelected:
		return "selected"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCoolingDown:
		return "cooling-down"
	default:
		return "unknown"
	}
}

var (
	// ErrNoFile is returned by Submit when nothing is selected.
	ErrNoFile = errors.New("no file selected")
	// ErrSubmitting is returned when a submission is already in flight.
	ErrSubmitting = errors.New("an upload is already in progress")
	// ErrCoolingDown is returned when submission is blocked by an active
	// cooldown; no request is made.
	ErrCoolingDown = errors.New("upload cooldown is active")
	// ErrDiscarded is returned when an in-flight submission was canceled
	// before it resolved; its result is thrown away.
	ErrDiscarded = errors.New("upload attempt was discarded")
)

// Uploader is the transport dependency of the controller.
type Uploader interface {
	UploadSound(ctx context.Context, audio io.Reader, filename, name string, onProgress api.ProgressFunc) (*api.Sound, error)
}

// CooldownStore persists the cooldown expiry so a restarted client
// resumes the exact server-dictated wait.
type CooldownStore interface {
	SaveCooldown(expiry time.Time) error
	ClearCooldown() error
}

// File is a selected audio file. Open provides the bytes at submit time;
// Preview is an optional local playback handle, closed when the attempt
// is discarded.
type File struct {
	Name    string
	Size    int64
	Open    func() (io.ReadCloser, error)
	Preview io.Closer
}

// Attempt is the transient client-side record of one upload.
type Attempt struct {
	ID       string
	Filename string
	Size     int64

	file File
	name string
}

// Name returns the current display name, already clamped.
func (a *Attempt) Name() string { return a.name }

// Controller is the upload state machine. At most one Attempt exists at a
// time; a new selection discards the previous one. All methods are safe
// for concurrent use.
type Controller struct {
	uploader   Uploader
	store      CooldownStore
	clock      clock.Clock
	idgen      clock.IDGenerator
	logger     logging.Logger
	invalidate func()

	mu             sync.Mutex
	attempt        *Attempt
	gen            int
	submitting     bool
	progress       int
	lastErr        error
	succeeded      bool
	cooldownExpiry time.Time
}

// NewController creates an upload controller. invalidate is called after
// every successful upload so the library cache refetches; it may be nil.
func NewController(uploader Uploader, store CooldownStore, clk clock.Clock, idgen clock.IDGenerator, logger logging.Logger, invalidate func()) *Controller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		uploader:   uploader,
		store:      store,
		clock:      clk,
		idgen:      idgen,
		logger:     logger,
		invalidate: invalidate,
	}
}

// RestoreCooldown installs a previously persisted cooldown expiry. An
// expiry in the past is ignored.
func (c *Controller) RestoreCooldown(expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if expiry.After(c.clock.Now()) {
		c.cooldownExpiry = expiry
	}
}

// Select accepts exactly one file, discarding any previous attempt. Local
// validation runs before anything else: an oversized file or a
// disallowed extension fails here without touching the network or the
// cooldown budget. On success the attempt enters StateSelected with the
// default name derived from the filename stem.
func (c *Controller) Select(file File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrSubmitting
	}

	c.discardLocked()

	if err := validateFile(file.Name, file.Size); err != nil {
		if file.Preview != nil {
			file.Preview.Close()
		}
		c.lastErr = err
		c.logger.Debug("file rejected locally", "filename", file.Name, "size", file.Size, "reason", err.Error())
		return err
	}

	c.attempt = &Attempt{
		ID:       c.idgen.New(),
		Filename: file.Name,
		Size:     file.Size,
		file:     file,
		name:     DefaultName(file.Name),
	}
	c.lastErr = nil
	c.succeeded = false
	c.logger.Debug("file selected", "attempt", c.attempt.ID, "filename", file.Name, "size", file.Size)
	return nil
}

// SetName updates the attempt's display name, clamped to NameMaxLength at
// the point of entry.
func (c *Controller) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt != nil {
		c.attempt.name = ClampName(name)
	}
}

// Attempt returns the current attempt, or nil.
func (c *Controller) Attempt() *Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// State reports the current lifecycle state. An active cooldown takes
// precedence over everything except an in-flight submission.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	if c.submitting {
		return StateSubmitting
	}
	if c.cooldownRemainingLocked() > 0 {
		return StateCoolingDown
	}
	switch {
	case c.attempt != nil:
		return StateSelected
	case c.succeeded:
		return StateSucceeded
	case c.lastErr != nil:
		return StateFailed
	default:
		return StateEmpty
	}
}

// Progress returns the transfer progress percentage of the in-flight
// submission, in [0,100].
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Err returns the failure of the last attempt, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// CooldownRemaining returns the whole seconds left on the active
// cooldown, recomputed from the stored expiry and the current clock. It
// self-clears: once the remaining time reaches zero the persisted expiry
// is dropped and submission is allowed again.
func (c *Controller) CooldownRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.cooldownRemainingLocked()
	if remaining == 0 && !c.cooldownExpiry.IsZero() {
		c.clearCooldownLocked()
	}
	return remaining
}

func (c *Controller) cooldownRemainingLocked() int {
	if c.cooldownExpiry.IsZero() {
		return 0
	}
	diff := c.cooldownExpiry.Sub(c.clock.Now())
	if diff <= 0 {
		return 0
	}
	return int((diff + time.Second - 1) / time.Second)
}

func (c *Controller) clearCooldownLocked() {
	c.cooldownExpiry = time.Time{}
	if c.store != nil {
		if err := c.store.ClearCooldown(); err != nil {
			c.logger.Warn("clearing persisted cooldown", "error", err)
		}
	}
}

// Submit uploads the selected file under its current name. Submission is
// rejected client-side, without contacting the server, while a cooldown
// is active or another submission is in flight. A rate-limit rejection
// starts a cooldown of exactly the server-dictated duration; any other
// rejection leaves the attempt in place so the user can retry
// explicitly. Canceling during an in-flight Submit does not abort the
// request, but its eventual result is discarded.
func (c *Controller) Submit(ctx context.Context) (*api.Sound, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	if remaining := c.cooldownRemainingLocked(); remaining > 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %ds remaining", ErrCoolingDown, remaining)
	}
	if c.attempt == nil {
		c.mu.Unlock()
		return nil, ErrNoFile
	}

	name := strings.TrimSpace(c.attempt.name)
	if name == "" {
		c.mu.Unlock()
		return nil, &ValidationError{Reason: "name must not be empty"}
	}

	attempt := c.attempt
	gen := c.gen
	c.submitting = true
	c.progress = 0
	c.lastErr = nil
	c.mu.Unlock()

	sound, err := c.transfer(ctx, attempt, name, gen)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.progress = 0

	if gen != c.gen {
		// The attempt was canceled or replaced while in flight.
		return nil, ErrDiscarded
	}

	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.IsRateLimited() && apiErr.RetryAfter > 0 {
			c.cooldownExpiry = c.clock.Now().Add(time.Duration(apiErr.RetryAfter) * time.Second)
			if c.store != nil {
				if serr := c.store.SaveCooldown(c.cooldownExpiry); serr != nil {
					c.logger.Warn("persisting cooldown", "error", serr)
				}
			}
			c.logger.Info("upload rate limited", "attempt", attempt.ID, "retryAfter", apiErr.RetryAfter)
		}
		c.lastErr = err
		return nil, err
	}

	c.discardLocked()
	c.succeeded = true
	c.logger.Info("upload succeeded", "attempt", attempt.ID, "sound", sound.ID, "name", sound.Name)
	if c.invalidate != nil {
		c.invalidate()
	}
	return sound, nil
}

// transfer runs the network call outside the controller lock. Progress
// updates are dropped once the attempt generation moves on.
func (c *Controller) transfer(ctx context.Context, attempt *Attempt, name string, gen int) (*api.Sound, error) {
	audio, err := attempt.file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer audio.Close()

	onProgress := func(percent int) {
		c.mu.Lock()
		if gen == c.gen {
			c.progress = percent
		}
		c.mu.Unlock()
	}
	return c.uploader.UploadSound(ctx, audio, attempt.Filename, name, onProgress)
}

// Cancel clears the attempt, any failure, and any cooldown, revoking the
// preview handle. An in-flight request is not aborted, but its result
// will be discarded when it resolves.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardLocked()
	c.lastErr = nil
	c.succeeded = false
	if !c.cooldownExpiry.IsZero() {
		c.clearCooldownLocked()
	}
}

// discardLocked drops the current attempt, closing its preview handle,
// and bumps the generation so stale submissions are ignored.
func (c *Controller) discardLocked() {
	if c.attempt != nil && c.attempt.file.Preview != nil {
		c.attempt.file.Preview.Close()
	}
	c.attempt = nil
	c.gen++
}
