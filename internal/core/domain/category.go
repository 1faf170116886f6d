package domain

// HoldingCategoryName is the singleton internal category unknown external
// categories route to until a human confirms a mapping.
const HoldingCategoryName = "Holding"

// InternalSource marks a Category row as belonging to cashkeep's own,
// permanent taxonomy rather than an external snapshot.
const InternalSource = "internal"

// Category is either an internal (permanent, source="internal") entry or an
// external snapshot coexisting alongside it.
type Category struct {
	CategoryID string `json:"categoryID"`
	Name       string `json:"name"`
	ParentID   string `json:"parentID,omitempty"`
	IsArchived bool   `json:"isArchived"`
	Source     string `json:"source"`
	ExternalID string `json:"externalID,omitempty"`
	AuditFields
}

// CategoryMap is the frozen (source, external_id) -> internal_category_id
// mapping. Once assigned, InternalCategoryID never changes for a given key.
type CategoryMap struct {
	Source            string `json:"source"`
	ExternalID        string `json:"externalID"`
	InternalCategoryID string `json:"internalCategoryID"`
	AuditFields
}

// QuestionCategoryAlias maps a plain vocabulary term ("rent", "groceries")
// used in questionnaire queries to an internal category.
type QuestionCategoryAlias struct {
	Alias      string `json:"alias"`
	CategoryID string `json:"categoryID"`
}
