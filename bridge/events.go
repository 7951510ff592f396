package bridge

import "time"

// Stage is one step of the burn-and-mint flow.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageApproving          Stage = "approving"
	StageBurning            Stage = "burning"
	StageWaitingAttestation Stage = "waiting_attestation"
	StageSettling           Stage = "settling"
	StageComplete           Stage = "complete"
	StageFailed             Stage = "failed"
)

// StageEvent is one state transition of a bridge run. Events carry the burn
// hash as soon as it exists so observers can persist it for resumption.
type StageEvent struct {
	Stage      Stage     `json:"stage"`
	BurnTxHash string    `json:"burnTxHash,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Observer receives stage transitions. Implementations must not block; the
// orchestrator calls them inline between stages.
type Observer interface {
	BridgeStage(e StageEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(StageEvent)

func (f ObserverFunc) BridgeStage(e StageEvent) { f(e) }
