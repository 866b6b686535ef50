package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/glosa/internal/model"
)

func alert(id string) model.Suggestion {
	return model.Suggestion{ID: id, Kind: model.KindTermAlert, OriginalText: "rotina", SuggestedText: "atividade de P&D", Status: model.StatusPending}
}

func improvement(id string) model.Suggestion {
	return model.Suggestion{ID: id, Kind: model.KindImprovement, Status: model.StatusPending}
}

func ids(in []model.Suggestion) []string {
	out := make([]string, len(in))
	for i, sg := range in {
		out[i] = sg.ID
	}
	return out
}

func TestStore_ReconcileKeepsStatus(t *testing.T) {
	s := NewStore()
	s.ReconcileTermAlerts([]model.Suggestion{alert("term-rotina-40")})
	require.True(t, s.SetStatus("term-rotina-40", model.StatusRejected))

	s.ReconcileTermAlerts([]model.Suggestion{alert("term-rotina-40"), alert("term-rotina-60")})

	got, ok := s.Get("term-rotina-40")
	require.True(t, ok)
	assert.Equal(t, model.StatusRejected, got.Status)

	got, ok = s.Get("term-rotina-60")
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestStore_ReconcileDropsStaleAlerts(t *testing.T) {
	s := NewStore()
	s.ReconcileTermAlerts([]model.Suggestion{alert("term-rotina-0"), alert("term-rotina-7")})
	require.True(t, s.SetStatus("term-rotina-7", model.StatusAccepted))

	s.ReconcileTermAlerts([]model.Suggestion{alert("term-rotina-0")})

	assert.Equal(t, []string{"term-rotina-0"}, ids(s.All()))
	_, ok := s.Get("term-rotina-7")
	assert.False(t, ok, "resolved alerts that no longer match are dropped too")
}

func TestStore_ReconcileCollapsesDuplicates(t *testing.T) {
	s := NewStore()
	s.ReconcileTermAlerts([]model.Suggestion{alert("a"), alert("a"), alert("b")})

	assert.Equal(t, []string{"a", "b"}, ids(s.All()))
}

func TestStore_ReconcileLeavesImprovements(t *testing.T) {
	s := NewStore()
	s.ReplaceImprovements([]model.Suggestion{improvement("ai-1-0")})
	s.ReconcileTermAlerts([]model.Suggestion{alert("a")})
	s.ReconcileTermAlerts(nil)

	assert.Equal(t, []string{"ai-1-0"}, ids(s.All()))
}

func TestStore_ReplaceImprovements(t *testing.T) {
	s := NewStore()
	s.ReconcileTermAlerts([]model.Suggestion{alert("a")})

	s.ReplaceImprovements([]model.Suggestion{improvement("ai-1-0"), improvement("ai-1-1")})
	require.True(t, s.SetStatus("ai-1-0", model.StatusAccepted))

	s.ReplaceImprovements([]model.Suggestion{improvement("ai-2-0")})

	assert.Equal(t, []string{"a", "ai-2-0"}, ids(s.All()))
	assert.Len(t, s.ByKind(model.KindImprovement), 1)
	assert.Len(t, s.ByKind(model.KindTermAlert), 1)
}

func TestStore_ReplaceImprovementsForcesKind(t *testing.T) {
	s := NewStore()
	s.ReplaceImprovements([]model.Suggestion{{ID: "x", Kind: model.KindTermAlert}})

	got, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, model.KindImprovement, got.Kind)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestStore_SetStatus(t *testing.T) {
	s := NewStore()
	s.ReconcileTermAlerts([]model.Suggestion{alert("a")})

	assert.False(t, s.SetStatus("missing", model.StatusAccepted), "unknown id")
	assert.False(t, s.SetStatus("a", model.StatusPending), "pending is not a decision")
	assert.True(t, s.SetStatus("a", model.StatusAccepted))
	assert.False(t, s.SetStatus("a", model.StatusRejected), "already resolved")

	got, _ := s.Get("a")
	assert.Equal(t, model.StatusAccepted, got.Status)
}

func TestStore_PendingAndClear(t *testing.T) {
	s := NewStore()
	s.ReconcileTermAlerts([]model.Suggestion{alert("a"), alert("b")})
	s.ReplaceImprovements([]model.Suggestion{improvement("c")})
	s.SetStatus("b", model.StatusRejected)

	assert.Equal(t, []string{"a", "c"}, ids(s.Pending()))
	assert.Equal(t, 3, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.All())
}

func TestStore_ByKindReturnsCopy(t *testing.T) {
	s := NewStore()
	s.ReconcileTermAlerts([]model.Suggestion{alert("a")})

	out := s.ByKind(model.KindTermAlert)
	out[0].Status = model.StatusAccepted

	got, _ := s.Get("a")
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Empty(t, s.ByKind(model.KindLengthViolation))
}
