package clients

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
)

const DefaultClassifierHeader = `Tu es un analyste des émotions de récits de rêves.
Pour le texte fourni, estime l'intensité de chaque émotion présente (par exemple heureux,
anxieux, stressant, neutre, bizarre, triste, en colère).
Réponds UNIQUEMENT avec un objet JSON dont chaque clé est une émotion et chaque valeur un
nombre entre 0 et 1. Aucun texte autour.`

// scoreReply is the shape expected back from the classifier.
type scoreReply map[string]float64

func scoreReplySchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	b, err := json.MarshalIndent(reflector.Reflect(scoreReply{}), "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// ComposeClassifierInstructions appends the reply JSON schema to header.
func ComposeClassifierInstructions(header string) string {
	header = strings.TrimSpace(header)
	schema := scoreReplySchema()
	if schema == "" {
		return header
	}
	return header + "\n\nSchéma JSON de la réponse :\n" + schema
}

// LoadClassifierHeader reads a replacement header; the schema is still appended.
func LoadClassifierHeader(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("classifier prompt: %w", err)
	}
	h := strings.TrimSpace(string(b))
	if h == "" {
		return "", fmt.Errorf("classifier prompt %s: empty file", path)
	}
	return h, nil
}

func classifierUserMessage(transcript string) string {
	return "Analyse le texte ci-dessous (ta réponse doit être dans le format JSON) : " + transcript
}
