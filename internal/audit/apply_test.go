package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/glosa/internal/model"
)

func TestApplyReplacement(t *testing.T) {
	rotina := model.Suggestion{OriginalText: "rotina", SuggestedText: "atividade de P&D"}
	basica := model.Suggestion{OriginalText: "pesquisa básica", SuggestedText: "pesquisa aplicada"}

	tests := []struct {
		name    string
		content string
		sg      model.Suggestion
		want    string
		count   int
	}{
		{
			name:    "every occurrence ignoring case",
			content: "<p>Rotina e <strong>rotina</strong></p>",
			sg:      rotina,
			want:    "<p>atividade de P&amp;D e <strong>atividade de P&amp;D</strong></p>",
			count:   2,
		},
		{
			name:    "attributes are left alone",
			content: `<p>Ver <a href="/docs/rotina" title="rotina">rotina</a></p>`,
			sg:      rotina,
			want:    `<p>Ver <a href="/docs/rotina" title="rotina">atividade de P&amp;D</a></p>`,
			count:   1,
		},
		{
			name:    "term split by inline markup",
			content: "<p>Uma pesquisa <strong>básica</strong> nova</p>",
			sg:      basica,
			want:    "<p>Uma pesquisa aplicada<strong></strong> nova</p>",
			count:   1,
		},
		{
			name:    "matches do not cross paragraphs",
			content: "<p>pesquisa</p><p>básica</p>",
			sg:      basica,
			want:    "<p>pesquisa</p><p>básica</p>",
		},
		{
			name:    "scripts are left alone",
			content: "<p>rotina</p><script>var rotina = 1</script>",
			sg:      rotina,
			want:    "<p>atividade de P&amp;D</p><script>var rotina = 1</script>",
			count:   1,
		},
		{
			name:    "replacement is escaped",
			content: "<p>rotina</p>",
			sg:      model.Suggestion{OriginalText: "rotina", SuggestedText: "<b>P&D</b>"},
			want:    "<p>&lt;b&gt;P&amp;D&lt;/b&gt;</p>",
			count:   1,
		},
		{
			name:    "entities in the matched text",
			content: "<p>P&amp;D rotina</p>",
			sg:      model.Suggestion{OriginalText: "p&d rotina", SuggestedText: "atividade"},
			want:    "<p>atividade</p>",
			count:   1,
		},
		{
			name:    "metacharacters are literal",
			content: "custo (estimado) e custo",
			sg:      model.Suggestion{OriginalText: "custo (estimado)", SuggestedText: "$1 custo"},
			want:    "$1 custo e custo",
			count:   1,
		},
		{
			name:    "no occurrence leaves content",
			content: "<p>texto</p>",
			sg:      rotina,
			want:    "<p>texto</p>",
		},
		{
			name:    "blank original leaves content",
			content: "texto",
			sg:      model.Suggestion{OriginalText: " ", SuggestedText: "x"},
			want:    "texto",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := ApplyReplacement(tt.content, tt.sg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.count, n)
		})
	}
}

func TestApplyAll(t *testing.T) {
	content := "pesquisa básica e rotina, rotina"
	suggestions := []model.Suggestion{
		{Kind: model.KindTermAlert, OriginalText: "pesquisa básica", SuggestedText: "pesquisa aplicada", Status: model.StatusPending},
		{Kind: model.KindTermAlert, OriginalText: "rotina", SuggestedText: "atividade", Status: model.StatusPending},
		{Kind: model.KindTermAlert, OriginalText: "Rotina", SuggestedText: "outra", Status: model.StatusPending},
		{Kind: model.KindImprovement, OriginalText: "e", SuggestedText: "E", Status: model.StatusPending},
	}

	assert.Equal(t, "pesquisa aplicada e atividade, atividade", ApplyAll(content, suggestions))

	suggestions[0].Status = model.StatusRejected
	assert.Equal(t, "pesquisa básica e atividade, atividade", ApplyAll(content, suggestions))
}

func TestDiff(t *testing.T) {
	cs := Diff("uma rotina simples", "uma atividade simples")

	assert.True(t, cs.Changed())
	assert.Equal(t, len([]rune("atividade")), cs.Additions-cs.Deletions+len([]rune("rotina")))
	assert.NotEmpty(t, cs.Patch)
	assert.NotEmpty(t, cs.Pretty())

	same := Diff("igual", "igual")
	assert.False(t, same.Changed())
	assert.Zero(t, same.Additions)
	assert.Zero(t, same.Deletions)
}
