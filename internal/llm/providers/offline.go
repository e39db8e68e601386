package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-quizgen/internal/llm/transport"
)

// ProviderOffline identifies the canned-response handler in logs and
// response metadata.
const ProviderOffline = "offline"

// Canned payloads returned in offline mode. Each matches the shape the
// corresponding parser expects so the pipeline runs end to end without
// network access: five questions of four options for generation and
// correction, a passing verdict for validation.
const (
	offlineBatchPayload = `[
  {
    "pregunta": "¿Cuál es el primer paso obligatorio antes de iniciar las actividades descritas en el procedimiento?",
    "opciones": ["Verificar las condiciones de seguridad del área de trabajo", "Firmar el registro de salida", "Notificar al área comercial", "Archivar la documentación del turno anterior"]
  },
  {
    "pregunta": "¿Quién es el responsable de autorizar la ejecución del procedimiento?",
    "opciones": ["El supervisor del área designado en el documento", "Cualquier operador disponible", "El personal de vigilancia", "El proveedor externo"]
  },
  {
    "pregunta": "¿Qué debe hacerse si se detecta una condición anormal durante la ejecución?",
    "opciones": ["Detener la actividad y reportar al responsable inmediato", "Continuar y reportar al final del turno", "Reiniciar el equipo sin avisar", "Ignorar la condición si no hay alarma"]
  },
  {
    "pregunta": "¿Con qué frecuencia establece el procedimiento la revisión de los registros generados?",
    "opciones": ["Según la periodicidad indicada en el documento", "Únicamente al cierre del año", "Solo cuando lo solicite auditoría", "Nunca, los registros no se revisan"]
  },
  {
    "pregunta": "¿Qué documento complementa la ejecución de las actividades descritas?",
    "opciones": ["Los formatos y registros referenciados en el procedimiento", "El reglamento de tránsito", "El manual del empleado de otra área", "Ningún documento adicional"]
  }
]`

	offlineVerdictPayload = `{"score": 1, "comment": "Cumple con los criterios evaluados."}`
)

// OfflineHandler serves deterministic canned responses keyed on the
// request operation. It terminates the middleware chain in offline mode so
// the full pipeline above it stays exercised.
type OfflineHandler struct {
	logger *slog.Logger
}

// NewOfflineHandler builds the canned-response terminal handler.
func NewOfflineHandler(logger *slog.Logger) *OfflineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OfflineHandler{logger: logger.With("component", "llm-offline")}
}

// Handle returns the canned payload for the request operation.
func (h *OfflineHandler) Handle(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm request: %w", err)
	}

	var content string
	switch req.Operation {
	case transport.OpGeneration, transport.OpCorrection:
		content = offlineBatchPayload
	case transport.OpValidation:
		content = offlineVerdictPayload
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, req.Operation)
	}

	h.logger.Debug("serving canned response", "operation", req.Operation)

	return &transport.Response{
		Content:      content,
		FinishReason: "stop",
		Provider:     ProviderOffline,
		Model:        req.Model,
		Usage: transport.Usage{
			PromptTokens:     int64(len(req.UserContent) / 4),
			CompletionTokens: int64(len(content) / 4),
			TotalTokens:      int64((len(req.UserContent) + len(content)) / 4),
		},
	}, nil
}
