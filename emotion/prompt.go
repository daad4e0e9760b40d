package emotion

import (
	"fmt"
	"math"
)

// Prompt is the text sent to the image generator.
type Prompt string

func (p Prompt) String() string { return string(p) }

// Percent rounds a probability to the nearest whole percent.
func Percent(probability float64) int {
	return int(math.RoundToEven(probability * 100))
}

// Compose frames the dream scene for the image generator. The transcript goes last, as is.
func Compose(transcript, label string, probability float64, style string) Prompt {
	return Prompt(fmt.Sprintf("Illustration de rêve %s (intensité: %d%%), %s, Scène: %s",
		label, Percent(probability), style, transcript))
}
