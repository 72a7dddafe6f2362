package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

const maxPromptSentences = 200

// SystemInstruction is sent as the model's system role
const SystemInstruction = "Eres un analista de reuniones. Extrae unicamente tareas accionables asignadas a personas. Responde JSON valido."

const promptRules = `Analiza esta reunion y extrae SOLO tareas accionables reales.
No incluyas resumenes, opiniones, contexto, notas generales o texto que no sea tarea.
Una tarea valida debe implicar una accion concreta o compromiso verificable.
Si una tarea no tiene responsable claro, deja assignee_email y assignee_name en null.
Reglas de fecha:
- fecha_actual: %s
- anio_actual: %d
- mes_actual: %02d
- Si hay fecha relativa (manana, ayer, en 1 semana, dentro de 2 semanas, 1 mes), convierte a YYYY-MM-DD tomando como base fecha_actual.
- Si aparece fecha tipo '23 de febrero' sin anio, usa anio_actual.
- Si aparece '25 de este mes', usa mes_actual y anio_actual.
Si no existe una fecha inferible, deja due_date en null.
Reglas de agenda de reunion:
- Si la tarea implica agendar reunion y hay hora explicita, llena scheduled_start en ISO local YYYY-MM-DDTHH:MM:SS.
- Si hay fin/duracion explicita, llena scheduled_end. Si no, deja scheduled_end en null.
- Si se menciona zona horaria explicita (EST, PST, hora de Mexico, etc.), llena event_timezone con formato IANA (ej. America/New_York, America/Mexico_City).
- Si hay frecuencia (todos los jueves, cada semana, cada mes, al inicio de cada mes), llena recurrence_rule usando RRULE sin prefijo RRULE: (ej. FREQ=WEEKLY;INTERVAL=1;BYDAY=TH).
- Si la transcripcion menciona explicitamente Google Meet o Microsoft Teams, llena online_meeting_platform con: google_meet o microsoft_teams.
- Si se solicita una reunion pero sin proveedor explicito, usa online_meeting_platform=auto.
- Si no aplica agenda/recurrencia/videollamada, deja esos campos en null.
Incluye en source_sentence la frase exacta donde aparezca la tarea y/o la pista temporal.
Devuelve un JSON con este formato exacto:
{
  "action_items": [
    {
      "title": "string",
      "assignee_email": "string|null",
      "assignee_name": "string|null",
      "due_date": "YYYY-MM-DD|null",
      "scheduled_start": "YYYY-MM-DDTHH:MM:SS|null",
      "scheduled_end": "YYYY-MM-DDTHH:MM:SS|null",
      "event_timezone": "IANA_TIMEZONE|null",
      "recurrence_rule": "RRULE_WITHOUT_PREFIX|null",
      "online_meeting_platform": "google_meet|microsoft_teams|auto|null",
      "details": "string|null",
      "source_sentence": "string|null"
    }
  ]
}

`

// BuildPrompt renders the extraction prompt for one meeting
func BuildPrompt(in Input, ref time.Time) string {
	sentences := in.Sentences
	if len(sentences) > maxPromptSentences {
		sentences = sentences[:maxPromptSentences]
	}
	if sentences == nil {
		sentences = []entities.Sentence{}
	}
	emails := in.ParticipantEmails
	if emails == nil {
		emails = []string{}
	}
	serializedSentences, _ := json.Marshal(sentences)
	serializedEmails, _ := json.Marshal(emails)

	meetingID := strings.TrimSpace(in.MeetingID)
	if meetingID == "" {
		meetingID = "null"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(promptRules, formatDate(ref), ref.Year(), int(ref.Month())))
	sb.WriteString("meeting_id: " + meetingID + "\n")
	sb.WriteString("participant_emails: " + string(serializedEmails) + "\n")
	sb.WriteString("sentences: " + string(serializedSentences) + "\n")
	sb.WriteString("transcript:\n" + strings.TrimSpace(in.TranscriptText))
	return sb.String()
}
