package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/model"
)

// Compile turns raw rule configuration into typed rules, preserving order.
// Unrecognized condition kinds are dropped with a warning; unrecognized
// action types are kept as UnknownAction so they are reported at run time.
func Compile(cfgs []model.RuleConfig, log *zap.Logger) []model.ProcessingRule {
	if log == nil {
		log = zap.NewNop()
	}

	rules := make([]model.ProcessingRule, 0, len(cfgs))
	for _, cfg := range cfgs {
		rules = append(rules, compileRule(cfg, log.With(zap.String("rule", cfg.Name))))
	}
	return rules
}

func compileRule(cfg model.RuleConfig, log *zap.Logger) model.ProcessingRule {
	rule := model.ProcessingRule{Name: cfg.Name}

	for key, value := range cfg.Conditions {
		switch model.ConditionKind(strings.ToLower(key)) {
		case model.ConditionSubjectContains:
			rule.Conditions.SubjectContains = toStrings(value)
		case model.ConditionFromDomain:
			rule.Conditions.FromDomain = toStrings(value)
		case model.ConditionFromContains:
			rule.Conditions.FromContains = toStrings(value)
		case model.ConditionCategory:
			rule.Conditions.Category = toStrings(value)
		case model.ConditionMinPriority:
			p, err := toThreshold(value)
			if err != nil {
				log.Warn("ignoring min_priority condition", zap.Error(err))
				continue
			}
			rule.Conditions.MinPriority = &p
		default:
			log.Warn("ignoring unknown condition kind", zap.String("condition", key))
		}
	}

	if rule.Conditions.Empty() {
		log.Warn("rule has no recognized conditions and will never match")
	}

	for _, raw := range cfg.Actions {
		rule.Actions = append(rule.Actions, compileAction(raw))
	}

	return rule
}

func compileAction(raw map[string]any) model.Action {
	kind := stringField(raw, "type")

	switch model.ActionKind(kind) {
	case model.ActionArchive:
		return model.ArchiveAction{}
	case model.ActionMarkRead:
		return model.MarkReadAction{}
	case model.ActionForward:
		return model.ForwardAction{To: stringField(raw, "to")}
	case model.ActionNotify:
		priority := stringField(raw, "priority")
		if priority == "" {
			priority = "normal"
		}
		return model.NotifyAction{Priority: priority}
	case model.ActionAutoReply:
		return model.AutoReplyAction{
			Template: model.ParseReplyTemplate(stringField(raw, "template")),
		}
	default:
		return model.UnknownAction{Type: kind}
	}
}

// toStrings accepts a list or a single scalar and returns it as strings.
// The result is never nil, so a present-but-empty list still counts as a
// present condition kind.
func toStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// toThreshold reads min_priority from a number, a numeric string, or a list
// whose first element is one of those. Priorities are integers, so a
// fractional threshold rounds up: 3.5 admits 4 and 5 but not 3.
func toThreshold(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(math.Ceil(v)), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("min_priority %q is not a number", v)
		}
		return int(math.Ceil(f)), nil
	case []any:
		if len(v) == 0 {
			return 0, fmt.Errorf("min_priority list is empty")
		}
		return toThreshold(v[0])
	case []string:
		if len(v) == 0 {
			return 0, fmt.Errorf("min_priority list is empty")
		}
		return toThreshold(v[0])
	default:
		return 0, fmt.Errorf("min_priority has unsupported type %T", value)
	}
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
