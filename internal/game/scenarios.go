package game

import "github.com/verdictlab/crisisquiz/internal/domain"

// Catalog is the built-in scenario set. Rounds draw from it in order;
// a game with more rounds than scenarios wraps around.
//
// Ideal is optional reference context for the judges, not an answer
// key. Scenarios without one are judged on the proposal alone.
var Catalog = []domain.Scenario{
	{
		ID:       1,
		Title:    "Trust and Public Health",
		Category: "health",
		Text: "The new Minister of Health suspects that citizen trust in the public system affects the use of health services. She needs evidence to design a communications campaign. As a survey analyst, what research question would you pose and how would you approach it with the available data?",
		Ideal: &domain.IdealResponse{
			ResearchQuestion:  "Does trust in the public health system predict actual use of public health services, controlling for income and insurance type?",
			ExpectedVariables: []string{"trust_health_system", "health_service_use", "insurance_type", "income_bracket", "age_group"},
			ExpectedCrossTabs: []string{"trust_health_system x health_service_use", "trust_health_system x insurance_type"},
			SuggestedCharts:   []string{"grouped bar", "trend line by survey wave"},
			KeyInsights:       []string{"Low trust correlates with private-service substitution even among low-income respondents"},
			CommonErrors:      []string{"Using satisfaction with last visit as a proxy for system trust", "Ignoring insurance type as a confounder"},
		},
	},
	{
		ID:       2,
		Title:    "Public Safety Crisis",
		Category: "security",
		Text: "The media report a dramatic rise in the feeling of insecurity, but police statistics do not confirm it. The Ministry of the Interior needs to understand the gap between perception and reality. What analysis would you propose using the survey data?",
		Ideal: &domain.IdealResponse{
			ResearchQuestion:  "What sociodemographic and media-consumption factors explain the divergence between perceived insecurity and reported victimization?",
			ExpectedVariables: []string{"perceived_insecurity", "victimization_12m", "news_consumption", "region", "age_group"},
			ExpectedCrossTabs: []string{"perceived_insecurity x victimization_12m", "perceived_insecurity x news_consumption"},
			SuggestedCharts:   []string{"scatter of perception vs victimization by region", "stacked bar"},
			KeyInsights:       []string{"Heavy news consumers report high insecurity at unchanged victimization rates"},
			CommonErrors:      []string{"Treating perception and victimization as the same construct"},
		},
	},
	{
		ID:       3,
		Title:    "Education Reform Under Debate",
		Category: "education",
		Text: "Congress is debating a controversial education reform. A senator needs to understand how public opinion on education has evolved over the last 20 years and which sociodemographic factors predict support for educational change. Which variables would you explore?",
	},
	{
		ID:       4,
		Title:    "Political Polarization",
		Category: "politics",
		Text: "Political analysts debate whether the country is more polarized than before. A think tank commissions you to investigate the evolution of political identities and their relationship with other social attitudes. How would you structure this analysis with the survey data?",
	},
	{
		ID:       5,
		Title:    "Inequality and Social Unrest",
		Category: "economy",
		Text: "After the social protests, the government needs to understand the relationship between perceived inequality, social mobility, and support for different redistributive policies. What research question would you formulate and which survey variables would you use?",
		Ideal: &domain.IdealResponse{
			ResearchQuestion:  "Does perceived lack of social mobility predict support for redistributive policy more strongly than current income does?",
			ExpectedVariables: []string{"perceived_inequality", "mobility_expectation", "redistribution_support", "income_bracket", "education_level"},
			ExpectedCrossTabs: []string{"mobility_expectation x redistribution_support", "perceived_inequality x income_bracket"},
			SuggestedCharts:   []string{"heatmap", "diverging bar"},
			KeyInsights:       []string{"Mobility pessimism predicts redistribution support across all income brackets"},
			CommonErrors:      []string{"Conflating objective inequality measures with perceived inequality"},
		},
	},
	{
		ID:       6,
		Title:    "Religious Values in Transition",
		Category: "values",
		Text: "Church authorities are concerned about the decline in religiosity, especially among the young. You are asked to analyze long-term trends in the importance of religion, religious practice, and their relationship with moral values. How would you approach this analysis?",
	},
	{
		ID:       7,
		Title:    "Trust in Democratic Institutions",
		Category: "institutions",
		Text: "An international organization is studying democratic quality in the region. You are asked for an analysis of the evolution of trust in key institutions such as congress, the judiciary, and the police. What patterns would you look for in the survey data?",
	},
	{
		ID:       8,
		Title:    "The Generational Divide",
		Category: "demographics",
		Text: "A news outlet wants to publish a special feature on generational differences. You are asked to identify the attitudes where the young and the elderly differ most sharply. Which variables would you compare, and how?",
	},
	{
		ID:       9,
		Title:    "National Identity and Migration",
		Category: "identity",
		Text: "Rising immigration has sparked public debate. The national migration service needs to understand how citizens define national identity and what predicts attitudes toward immigrants. What analysis would you propose?",
	},
	{
		ID:       10,
		Title:    "Climate Change and Priorities",
		Category: "environment",
		Text: "An environmental NGO wants to understand why climate policy is not a political priority despite the scientific evidence. You are asked to analyze the evolution of environmental concern and its relationship with other citizen priorities. How would you structure this analysis?",
	},
}

// ScenarioForRound maps a 1-based round number onto the catalog,
// wrapping when a game has more rounds than scenarios.
func ScenarioForRound(roundNumber int) domain.Scenario {
	return Catalog[(roundNumber-1)%len(Catalog)]
}

// ScenarioByID looks up a catalog scenario. The boolean reports whether
// the id is known.
func ScenarioByID(id int) (domain.Scenario, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Scenario{}, false
}
