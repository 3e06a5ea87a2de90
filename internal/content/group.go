package content

import "fmt"

// GroupKind names the entity kind a sibling group orders.
type GroupKind string

const (
	KindMaterial GroupKind = "material"
	KindChapter  GroupKind = "chapter"
	KindUnit     GroupKind = "unit"
	KindQuestion GroupKind = "question"
	KindAnswer   GroupKind = "answer"
)

// SiblingGroup identifies the set of entities sharing one immediate parent.
//
//	KindMaterial: all materials; ScopeID is empty.
//	KindChapter:  ScopeID is the material, ParentID the parent chapter ("" for roots).
//	KindUnit:     ScopeID is the chapter.
//	KindQuestion: ScopeID is the unit.
//	KindAnswer:   ScopeID is the question.
type SiblingGroup struct {
	Kind     GroupKind `json:"kind"`
	ScopeID  string    `json:"scope_id,omitempty"`
	ParentID string    `json:"parent_id,omitempty"`
}

// MaterialsGroup is the catalog-wide material group.
func MaterialsGroup() SiblingGroup { return SiblingGroup{Kind: KindMaterial} }

// ChaptersGroup is the group of chapters under parentID ("" for roots) in a material.
func ChaptersGroup(materialID, parentID string) SiblingGroup {
	return SiblingGroup{Kind: KindChapter, ScopeID: materialID, ParentID: parentID}
}

// UnitsGroup is the group of units in a chapter.
func UnitsGroup(chapterID string) SiblingGroup {
	return SiblingGroup{Kind: KindUnit, ScopeID: chapterID}
}

// QuestionsGroup is the group of questions in a unit.
func QuestionsGroup(unitID string) SiblingGroup {
	return SiblingGroup{Kind: KindQuestion, ScopeID: unitID}
}

// AnswersGroup is the group of correct answers of a question.
func AnswersGroup(questionID string) SiblingGroup {
	return SiblingGroup{Kind: KindAnswer, ScopeID: questionID}
}

// Validate checks that the group is well formed for its kind.
func (g SiblingGroup) Validate() error {
	switch g.Kind {
	case KindMaterial:
		if g.ScopeID != "" || g.ParentID != "" {
			return Invalid("scope_id", "material group takes no scope")
		}
	case KindChapter:
		if g.ScopeID == "" {
			return Invalid("scope_id", "chapter group requires a material id")
		}
	case KindUnit, KindQuestion, KindAnswer:
		if g.ScopeID == "" {
			return Invalid("scope_id", "%s group requires a scope id", g.Kind)
		}
		if g.ParentID != "" {
			return Invalid("parent_id", "%s group takes no parent id", g.Kind)
		}
	default:
		return Invalid("kind", "unknown group kind %q", g.Kind)
	}
	return nil
}

// Key is a stable string form of the group, used for version tokens.
func (g SiblingGroup) Key() string {
	return fmt.Sprintf("%s:%s:%s", g.Kind, g.ScopeID, g.ParentID)
}

func (g SiblingGroup) String() string { return g.Key() }
