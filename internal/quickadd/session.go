package quickadd

import (
	"context"
	"sync"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

const DefaultParseDelay = 300 * time.Millisecond

type Creator interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
}

// Session is one open quick-add form. Keystrokes go through Type; the
// parse runs only after the debouncer settles and only the latest input's
// result is ever applied.
type Session struct {
	mu        sync.Mutex
	base      Draft
	view      Draft
	preview   Preview
	debouncer *Debouncer
	now       func() time.Time
	onPreview func(Preview)
}

func NewSession(draft Draft, delay time.Duration, now func() time.Time, onPreview func(Preview)) *Session {
	if delay <= 0 {
		delay = DefaultParseDelay
	}
	if now == nil {
		now = time.Now
	}
	return &Session{
		base:      draft,
		view:      draft,
		debouncer: NewDebouncer(delay),
		now:       now,
		onPreview: onPreview,
	}
}

func (s *Session) Type(title string) {
	s.mu.Lock()
	s.base.Title = title
	s.view.Title = title
	s.mu.Unlock()

	s.debouncer.Trigger(func() { s.refresh(title) })
}

func (s *Session) SetCategory(category model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base.Category = category
	s.view.Category = category
}

// Draft is the form as displayed: user input with the last parse laid
// over the non-title fields.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) Preview() Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// Settle runs any pending parse now.
func (s *Session) Settle() bool {
	return s.debouncer.Flush()
}

func (s *Session) Close() {
	s.debouncer.Cancel()
}

// Submit abandons any pending parse and builds the record from the final
// title and the user's own field values.
func (s *Session) Submit(ctx context.Context, creator Creator) (model.Task, error) {
	s.debouncer.Cancel()

	s.mu.Lock()
	draft := s.base
	s.mu.Unlock()

	task, err := Build(draft, s.now())
	if err != nil {
		return model.Task{}, err
	}
	return creator.Create(ctx, task)
}

func (s *Session) refresh(title string) {
	s.mu.Lock()
	if s.base.Title != title {
		s.mu.Unlock()
		return
	}
	preview := PreviewFor(s.base, s.now())
	if preview.Active {
		s.view = Overlay(s.base, preview.Parsed)
	} else {
		s.view = s.base
	}
	s.preview = preview
	callback := s.onPreview
	s.mu.Unlock()

	if callback != nil {
		callback(preview)
	}
}
