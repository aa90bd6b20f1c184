package service

import "github.com/pathwise-ai/pathwise/internal/domain"

// protocolRegistry returns the five fixed escape protocol templates,
// ordered by disruptiveness. Level 1 is the mandatory emergency
// fallback; a registry without it is a broken deployment.
func protocolRegistry() map[domain.ProtocolLevel]domain.EscapeProtocol {
	return map[domain.ProtocolLevel]domain.EscapeProtocol{
		domain.LevelPatternInterruption: {
			Level:               domain.LevelPatternInterruption,
			Name:                "Pattern Interruption",
			Description:         "Break the current thinking pattern with a deliberate perspective shift",
			RequiredFlexibility: 0.1,
			GainMin:             0.2,
			GainMax:             0.4,
			SuccessProbability:  0.8,
			Steps: []string{
				"Pause the current technique mid-step",
				"State the strongest assumption driving the last three decisions",
				"Apply a random provocation to the stated assumption",
				"Re-derive the next decision from the provoked framing",
			},
			Risks: []string{
				"Momentum loss on the current line of thought",
			},
		},
		domain.LevelResourceReallocation: {
			Level:               domain.LevelResourceReallocation,
			Name:                "Resource Reallocation",
			Description:         "Shift attention and capacity from committed threads to open ones",
			RequiredFlexibility: 0.2,
			GainMin:             0.25,
			GainMax:             0.45,
			SuccessProbability:  0.7,
			Steps: []string{
				"Inventory where session effort has concentrated",
				"Suspend the most committed thread",
				"Redirect the freed capacity to the two most open alternatives",
				"Re-evaluate option velocity after three steps",
			},
			Risks: []string{
				"Suspended thread may lose relevance",
				"Context-switching overhead",
			},
		},
		domain.LevelStakeholderReset: {
			Level:               domain.LevelStakeholderReset,
			Name:                "Stakeholder Reset",
			Description:         "Renegotiate expectations that prior decisions have committed to",
			RequiredFlexibility: 0.3,
			GainMin:             0.3,
			GainMax:             0.5,
			SuccessProbability:  0.6,
			Steps: []string{
				"List the expectations each prior decision created",
				"Identify which expectations block the open alternatives",
				"Propose revised expectations with explicit trade-offs",
				"Record the renegotiated constraints",
			},
			Risks: []string{
				"Trust erosion with affected stakeholders",
				"Renegotiation may be refused",
			},
		},
		domain.LevelTechnicalRefactoring: {
			Level:               domain.LevelTechnicalRefactoring,
			Name:                "Technical Refactoring",
			Description:         "Restructure committed work so components can change independently",
			RequiredFlexibility: 0.4,
			GainMin:             0.35,
			GainMax:             0.6,
			SuccessProbability:  0.55,
			Steps: []string{
				"Map the dependencies the committed decisions created",
				"Define seams that isolate the irreversible parts",
				"Restructure around the seams",
				"Verify each isolated part can now be replaced",
			},
			Risks: []string{
				"Refactoring cost with no immediate visible progress",
				"New seams may introduce their own constraints",
			},
		},
		domain.LevelStrategicPivot: {
			Level:               domain.LevelStrategicPivot,
			Name:                "Strategic Pivot",
			Description:         "Abandon the current path and restart from the strongest surviving option",
			RequiredFlexibility: 0.5,
			GainMin:             0.4,
			GainMax:             0.7,
			SuccessProbability:  0.5,
			Steps: []string{
				"Declare the current path closed",
				"Salvage the decisions that remain valid under any path",
				"Select the strongest surviving option as the new anchor",
				"Rebuild the plan from the new anchor",
			},
			Risks: []string{
				"Sunk work on the abandoned path",
				"Team and stakeholder whiplash",
				"The new anchor may inherit old constraints",
			},
		},
	}
}

// AvailableProtocols lists the protocol templates ordered by level,
// for catalog surfaces that have no session at hand.
func AvailableProtocols() []domain.EscapeProtocol {
	return protocolsByDisruptiveness(protocolRegistry())
}

// protocolsByDisruptiveness returns registry entries sorted ascending by
// level.
func protocolsByDisruptiveness(registry map[domain.ProtocolLevel]domain.EscapeProtocol) []domain.EscapeProtocol {
	ordered := make([]domain.EscapeProtocol, 0, len(registry))
	for _, level := range []domain.ProtocolLevel{
		domain.LevelPatternInterruption,
		domain.LevelResourceReallocation,
		domain.LevelStakeholderReset,
		domain.LevelTechnicalRefactoring,
		domain.LevelStrategicPivot,
	} {
		if p, ok := registry[level]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}
