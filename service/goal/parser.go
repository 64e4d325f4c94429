package goal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/viant/planner/model"
)

var (
	countExpr     = regexp.MustCompile(`(\d+)\s*(?:chats?|conversations?)`)
	thresholdExpr = regexp.MustCompile(`(?:(any|average|avg)\s+)?scores?\s+(?:(?:is|are)\s+)?(?:below|under|less than|<)\s*(\d+(?:\.\d+)?)`)

	evaluationKeywords    = []string{"review", "evaluate", "check", "assess", "analyze"}
	changeRequestKeywords = []string{"update prompt", "create pr", "pull request", "improve"}
	displayKeywords       = []string{"get", "show", "list", "display"}
)

// Parse converts a goal into an Intent. The original text is kept on the
// intent; matching happens on a lower-cased copy.
func Parse(text string) *model.Intent {
	lower := strings.ToLower(text)
	return &model.Intent{
		Goal:               text,
		ItemCount:          itemCount(lower),
		NeedsEvaluation:    containsAny(lower, evaluationKeywords),
		NeedsChangeRequest: containsAny(lower, changeRequestKeywords),
		ShowConversations:  containsAny(lower, displayKeywords),
		Threshold:          threshold(lower),
	}
}

// itemCount returns the first "<n> chat(s)|conversation(s)" count, or the
// default when absent, non-positive or out of int range.
func itemCount(lower string) int {
	match := countExpr.FindStringSubmatch(lower)
	if match == nil {
		return model.DefaultItemCount
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count <= 0 {
		return model.DefaultItemCount
	}
	return count
}

func threshold(lower string) *model.Threshold {
	match := thresholdExpr.FindStringSubmatch(lower)
	if match == nil {
		return nil
	}
	value, err := strconv.ParseFloat(match[2], 64)
	if err != nil || value <= 0 {
		return nil
	}
	scope := model.ThresholdAverage
	if match[1] == "any" {
		scope = model.ThresholdAny
	}
	return &model.Threshold{Value: value, Scope: scope}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
