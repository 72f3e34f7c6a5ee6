package model

// ConditionKind names one kind of rule condition.
type ConditionKind string

const (
	ConditionSubjectContains ConditionKind = "subject_contains"
	ConditionFromDomain      ConditionKind = "from_domain"
	ConditionFromContains    ConditionKind = "from_contains"
	ConditionCategory        ConditionKind = "category"
	ConditionMinPriority     ConditionKind = "min_priority"
)

// Conditions holds the condition kinds present on a rule. A nil slice (or
// nil MinPriority) means the kind is absent and is skipped during matching.
type Conditions struct {
	SubjectContains []string
	FromDomain      []string
	FromContains    []string
	Category        []string
	MinPriority     *int
}

// Empty reports whether no recognized condition kind is present.
func (c Conditions) Empty() bool {
	return c.SubjectContains == nil &&
		c.FromDomain == nil &&
		c.FromContains == nil &&
		c.Category == nil &&
		c.MinPriority == nil
}

// ActionKind identifies the variant of an Action.
type ActionKind string

const (
	ActionArchive   ActionKind = "archive"
	ActionMarkRead  ActionKind = "mark_read"
	ActionForward   ActionKind = "forward"
	ActionNotify    ActionKind = "notify"
	ActionAutoReply ActionKind = "auto_reply"
)

// Action is one step of a rule. The concrete types below form a closed set;
// dispatchers switch on the concrete type.
type Action interface {
	Kind() ActionKind
	isAction()
}

// ArchiveAction archives the email.
type ArchiveAction struct{}

// MarkReadAction marks the email as read.
type MarkReadAction struct{}

// ForwardAction forwards the email to To. An empty To makes the action a no-op.
type ForwardAction struct {
	To string
}

// NotifyAction raises a local notification with the given priority label.
type NotifyAction struct {
	Priority string
}

// AutoReplyAction replies to the sender with a fixed template.
type AutoReplyAction struct {
	Template ReplyTemplate
}

// UnknownAction preserves an action whose type was not recognized so it can
// be reported when the rule runs.
type UnknownAction struct {
	Type string
}

func (ArchiveAction) Kind() ActionKind   { return ActionArchive }
func (MarkReadAction) Kind() ActionKind  { return ActionMarkRead }
func (ForwardAction) Kind() ActionKind   { return ActionForward }
func (NotifyAction) Kind() ActionKind    { return ActionNotify }
func (AutoReplyAction) Kind() ActionKind { return ActionAutoReply }
func (a UnknownAction) Kind() ActionKind { return ActionKind(a.Type) }

func (ArchiveAction) isAction()   {}
func (MarkReadAction) isAction()  {}
func (ForwardAction) isAction()   {}
func (NotifyAction) isAction()    {}
func (AutoReplyAction) isAction() {}
func (UnknownAction) isAction()   {}

// ReplyTemplate names one of the built-in auto-reply bodies.
type ReplyTemplate string

const (
	TemplateDefault     ReplyTemplate = "default"
	TemplateOutOfOffice ReplyTemplate = "out_of_office"
	TemplateSupport     ReplyTemplate = "support"
)

// ParseReplyTemplate returns the named template, or TemplateDefault when the
// name is not one of the built-ins.
func ParseReplyTemplate(name string) ReplyTemplate {
	switch t := ReplyTemplate(name); t {
	case TemplateDefault, TemplateOutOfOffice, TemplateSupport:
		return t
	default:
		return TemplateDefault
	}
}

// ProcessingRule is a named set of conditions and the actions to run when
// any of them matches. Rules are loaded once and never modified.
type ProcessingRule struct {
	Name       string
	Conditions Conditions
	Actions    []Action
}
