package validation

import (
	"fmt"
	"strings"

	"github.com/ahrav/go-quizgen/internal/domain"
)

// verdictContract is the output instruction shared by every validator.
const verdictContract = `Responde únicamente con un objeto JSON con esta forma exacta, sin texto adicional:
{"score": 1, "comment": "justificación breve"}
Usa score 1 si la pregunta cumple el criterio y score 0 si no lo cumple.`

// validatorSystemPrompt returns the kind-specific evaluation instruction.
// Every prompt reminds the model that the first option is the correct
// answer, so verdicts judge content rather than ordering.
func validatorSystemPrompt(kind domain.ValidatorKind) string {
	var criterion string
	switch kind {
	case domain.ValidatorStructure:
		criterion = `Evalúa la ESTRUCTURA de una pregunta de opción múltiple: la pregunta debe ser una oración interrogativa completa y debe tener exactamente 4 opciones no vacías, sin duplicados ni opciones tipo "todas las anteriores".`
	case domain.ValidatorTechnical:
		criterion = `Evalúa la PRECISIÓN TÉCNICA de una pregunta de opción múltiple sobre un procedimiento de trabajo: la primera opción debe ser técnicamente correcta y las demás claramente incorrectas, sin contradecir prácticas estándar de seguridad industrial.`
	case domain.ValidatorDifficulty:
		criterion = `Evalúa la DIFICULTAD de una pregunta de opción múltiple: debe requerir comprensión real del procedimiento, sin ser trivial (respuesta obvia sin leer el documento) ni imposible (detalles irrelevantes o capciosos).`
	case domain.ValidatorClarity:
		criterion = `Evalúa la CLARIDAD de una pregunta de opción múltiple: redacción directa y sin ambigüedades, opciones mutuamente excluyentes, sin dobles negaciones ni tecnicismos innecesarios.`
	default:
		criterion = fmt.Sprintf("Evalúa el criterio %q de una pregunta de opción múltiple.", kind)
	}

	return "Eres un evaluador de preguntas de capacitación. " + criterion +
		" Ten en cuenta que la primera opción es la respuesta correcta.\n\n" + verdictContract
}

// buildValidationUserContent renders the question under judgment.
func buildValidationUserContent(q *domain.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pregunta: %s\n\nOpciones:\n", q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	return b.String()
}
