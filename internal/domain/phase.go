package domain

import "slices"

type Phase string

const (
	PhaseLobby              Phase = "LOBBY"
	PhaseDeckPending        Phase = "DECK_PENDING"
	PhaseVoting             Phase = "VOTING"
	PhaseWaitingConvergence Phase = "WAITING_CONVERGENCE"
	PhaseResults            Phase = "RESULTS"
)

func (p Phase) String() string {
	return string(p)
}

var validTransitions = map[Phase][]Phase{
	PhaseLobby:              {PhaseDeckPending, PhaseVoting},
	PhaseDeckPending:        {PhaseLobby, PhaseVoting},
	PhaseVoting:             {PhaseWaitingConvergence},
	PhaseWaitingConvergence: {PhaseResults},
	PhaseResults:            {PhaseLobby, PhaseVoting},
}

func (p Phase) CanTransitionTo(target Phase) bool {
	return slices.Contains(validTransitions[p], target)
}
