package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/glosa/internal/model"
)

// Notice texts shown to the author
const (
	MsgInsufficientContent = "Adicione mais conteúdo para análise."
	MsgSuggestionsFound    = "%d sugestão(ões) encontrada(s)"
	MsgNoSuggestions       = "Nenhuma sugestão adicional encontrada."
	MsgAnalysisFailed      = "Erro ao analisar conteúdo. Tente novamente."
)

// Notifier receives user-facing notices. Presentation is up to the
// implementation.
type Notifier interface {
	Notify(n model.Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n model.Notice)

// Notify calls f(n)
func (f NotifierFunc) Notify(n model.Notice) {
	f(n)
}

// Recorder is a Notifier that keeps every notice it receives
type Recorder struct {
	mu      sync.Mutex
	notices []model.Notice
}

// Notify records n
func (r *Recorder) Notify(n model.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns the recorded notices in arrival order
func (r *Recorder) Notices() []model.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notice(nil), r.notices...)
}

// Reset forgets every recorded notice
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

type notifierKey struct{}

// WithNotifier returns a context whose requests also report notices to n.
// It lets a single caller collect the notices of its own request.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

func notifierFrom(ctx context.Context) Notifier {
	n, _ := ctx.Value(notifierKey{}).(Notifier)
	return n
}

func foundNotice(count int) model.Notice {
	if count == 0 {
		return model.Notice{Level: model.NoticeInfo, Message: MsgNoSuggestions}
	}
	return model.Notice{Level: model.NoticeSuccess, Message: fmt.Sprintf(MsgSuggestionsFound, count)}
}
