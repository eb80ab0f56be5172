package classify

import "salespilot/internal/models"

// stageOrder is the fixed ordinal pipeline sequence. A lead's stage only
// ever moves to a strictly greater position.
var stageOrder = []string{
	models.StageNuevo,
	models.StageContactado,
	models.StageInteresado,
	models.StageCalificado,
	models.StageGanado,
}

// stageFor maps a classification to its proposed pipeline stage.
// bot_autoresponse has no mapping: it updates classification metadata
// only and never the stage.
var stageFor = map[Classification]string{
	Hot:  models.StageCalificado,
	Warm: models.StageInteresado,
	Cold: models.StageContactado,
}

// priorityFor maps a classification to the lead priority applied
// whenever the proposed stage is accepted.
var priorityFor = map[Classification]string{
	Hot:             models.PriorityAlta,
	Warm:            models.PriorityMedia,
	Cold:            models.PriorityBaja,
	BotAutoresponse: models.PriorityBaja,
}

// stageRank returns the ordinal position of a stage, or -1 if unknown.
func stageRank(stage string) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// ShouldUpdatePipeline reports whether a proposed stage may replace the
// current one. The transition is monotonic: it is accepted only when the
// proposed stage sits strictly later in the pipeline order.
func ShouldUpdatePipeline(current, proposed string) bool {
	return stageRank(proposed) > stageRank(current)
}

// ProposedStage returns the stage mapped to a classification, or false
// when the classification carries no stage proposal.
func ProposedStage(c Classification) (string, bool) {
	stage, ok := stageFor[c]
	return stage, ok
}

// PriorityFor returns the priority mapped to a classification.
func PriorityFor(c Classification) string {
	if p, ok := priorityFor[c]; ok {
		return p
	}
	return models.PriorityMedia
}
