// Package generation turns procedure text into question batches: prompt
// construction, the LLM call, response parsing, and batch assembly, plus
// the Temporal activities that drive them.
package generation

import (
	"fmt"
	"strings"

	"github.com/ahrav/go-quizgen/internal/domain"
)

// generatorSystemPrompt fixes the output contract for question generation.
// The JSON keys are the catalog's canonical Spanish names; the correct
// answer always goes first, the pipeline never reorders options.
const generatorSystemPrompt = `Eres un especialista en seguridad industrial y capacitación de personal operativo. A partir del texto de un procedimiento de trabajo generas preguntas de opción múltiple que evalúan su comprensión.

Reglas:
- Genera exactamente 5 preguntas basadas únicamente en el contenido del procedimiento.
- Cada pregunta tiene exactamente 4 opciones de respuesta.
- La primera opción es siempre la respuesta correcta.
- Las otras 3 opciones deben ser plausibles pero incorrectas.
- Cubre aspectos distintos del procedimiento: condiciones previas, responsabilidades, pasos de ejecución, controles y registros.

Responde únicamente con un arreglo JSON con esta forma exacta, sin texto adicional:
[{"pregunta": "...", "opciones": ["respuesta correcta", "opción incorrecta", "opción incorrecta", "opción incorrecta"]}]`

// buildGenerationUserContent packages the document for the model. The
// text goes in verbatim, even when extraction produced nothing; an empty
// document is the model's problem to report, not a silent skip.
func buildGenerationUserContent(identity domain.ProcedureIdentity, documentText, sourceName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Documento: %s\n", sourceName)
	fmt.Fprintf(&b, "Procedimiento: %s versión %d\n\n", identity.Code, identity.Version)
	b.WriteString("Texto del procedimiento:\n")
	b.WriteString(documentText)
	return b.String()
}
