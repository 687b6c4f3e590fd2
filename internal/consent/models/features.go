package models

// featureCategories maps platform features to the consent category that
// gates them. Features absent from this map are not consent-gated.
var featureCategories = map[string]Category{
	"chat":         CategoryCommunication,
	"messaging":    CategoryCommunication,
	"forums":       CategoryCommunication,
	"gamification": CategoryGamification,
	"leaderboard":  CategoryGamification,
	"badges":       CategoryGamification,
	"profile":      CategoryBasicInfo,
	"directory":    CategoryBasicInfo,
	"grades":       CategoryAcademic,
	"transcripts":  CategoryAcademic,
	"reports":      CategoryAnalytics,
	"analytics":    CategoryAnalytics,
}

// FeatureCategory resolves the consent category for a feature name.
// The second return is false for ungated features.
func FeatureCategory(feature string) (Category, bool) {
	c, ok := featureCategories[feature]
	return c, ok
}
