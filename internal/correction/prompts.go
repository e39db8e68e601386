package correction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ahrav/go-quizgen/internal/domain"
)

// correctorSystemPrompt fixes the output contract for the correction pass:
// same array shape the generator produces, same order as the input, and
// the correct answer stays in first position.
const correctorSystemPrompt = `Eres un especialista en seguridad industrial que corrige preguntas de opción múltiple sobre procedimientos de trabajo.

Recibirás el texto de un procedimiento y sus 5 preguntas actuales. Cada pregunta incluye sus puntuaciones de evaluación (1 aprobada, 0 rechazada) y los comentarios de los validadores.

Reglas:
- Corrige el texto y las opciones de las preguntas con puntuaciones en cero, atendiendo los comentarios.
- Conserva sin cambios, palabra por palabra, las preguntas sin observaciones.
- Cada pregunta mantiene exactamente 4 opciones.
- La primera opción es siempre la respuesta correcta; no cambies su posición.
- Mantén las preguntas en el mismo orden en que las recibiste.

Responde únicamente con un arreglo JSON de 5 objetos con esta forma exacta, sin texto adicional:
[{"pregunta": "...", "opciones": ["respuesta correcta", "opción incorrecta", "opción incorrecta", "opción incorrecta"]}]`

// correctionItem is the per-question view handed to the model. Embedding
// the evaluator scores keeps the flat punt_* layout the validators wrote.
type correctionItem struct {
	Text    string   `json:"pregunta"`
	Options []string `json:"opciones"`
	domain.EvaluatorScores
	Comments []string               `json:"comentarios,omitempty"`
	History  []domain.RevisionEntry `json:"historial_revision,omitempty"`
}

// buildCorrectionUserContent packages the procedure text and the full
// question set, validator feedback included, into the single correction
// request. Clean questions travel too so the model sees the whole batch
// it must echo back.
func buildCorrectionUserContent(batch *domain.Batch, procedureText string) string {
	items := make([]correctionItem, 0, len(batch.Questions))
	for i := range batch.Questions {
		q := &batch.Questions[i]
		items = append(items, correctionItem{
			Text:            q.Text,
			Options:         q.Options,
			EvaluatorScores: q.EvaluatorScores,
			Comments:        q.FailingComments(),
			History:         q.RevisionHistory,
		})
	}
	encoded, _ := json.MarshalIndent(items, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Texto del procedimiento:\n%s\n\n", procedureText)
	b.WriteString("Preguntas actuales:\n")
	b.Write(encoded)
	return b.String()
}
