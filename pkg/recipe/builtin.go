package recipe

import "github.com/vanderheijden86/orbview/pkg/explorer"

var opportunitiesPath = []string{explorer.IDWorkspace, explorer.IDResults, explorer.IDOpportunities}

func builtinRecipes() map[string]Recipe {
	return map[string]Recipe{
		"default": {
			Description: "Workspace root only, no filters",
		},
		"assets": {
			Description: "Satellites and ground stations",
			Expand:      []string{explorer.IDWorkspace, explorer.IDAssets, explorer.IDSatellites, explorer.IDGroundStations},
		},
		"targets": {
			Description: "Targets with their constraint coverage",
			Expand:      []string{explorer.IDWorkspace, explorer.IDTargets, explorer.IDConstraints},
		},
		"opportunities": {
			Description: "All imaging opportunities",
			Expand:      opportunitiesPath,
		},
		"left-looking": {
			Description: "SAR passes imaging left of the ground track",
			Filters:     Filters{LookSide: "LEFT"},
			Expand:      append(append([]string{}, opportunitiesPath...), explorer.IDLeftLooking),
		},
		"right-looking": {
			Description: "SAR passes imaging right of the ground track",
			Filters:     Filters{LookSide: "RIGHT"},
			Expand:      append(append([]string{}, opportunitiesPath...), explorer.IDRightLooking),
		},
		"ascending": {
			Description: "SAR passes on the ascending node",
			Filters:     Filters{PassDirection: "ASCENDING"},
			Expand:      opportunitiesPath,
		},
		"descending": {
			Description: "SAR passes on the descending node",
			Filters:     Filters{PassDirection: "DESCENDING"},
			Expand:      opportunitiesPath,
		},
		"plans": {
			Description: "Planning results and accepted orders",
			Expand:      []string{explorer.IDWorkspace, explorer.IDResults, explorer.IDPlans, explorer.IDOrders},
		},
		"history": {
			Description: "Analysis and planning run history",
			Expand:      []string{explorer.IDWorkspace, explorer.IDRuns, explorer.IDAnalysisRuns, explorer.IDPlanningRuns},
		},
	}
}
