package schema

import "fmt"

// Outcome is the human label of a binary prediction.
type Outcome string

const (
	Resistant Outcome = "Resistant"
	Sensitive Outcome = "Sensitive"
)

// OutcomeFor maps 1 to Resistant and 0 to Sensitive. Anything else is an error.
func OutcomeFor(prediction int) (Outcome, error) {
	switch prediction {
	case 1:
		return Resistant, nil
	case 0:
		return Sensitive, nil
	default:
		return "", fmt.Errorf("prediction %d is not a binary label", prediction)
	}
}

// Prediction is the inverse of OutcomeFor.
func (o Outcome) Prediction() (int, error) {
	switch o {
	case Resistant:
		return 1, nil
	case Sensitive:
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", string(o))
	}
}

// Message is the operator banner shown for the outcome.
func (o Outcome) Message() string {
	switch o {
	case Resistant:
		return "DR-TB Positive: Rifampicin Resistant"
	case Sensitive:
		return "DR-TB Negative: Rifampicin Sensitive"
	default:
		return "No prediction available"
	}
}
