package ir

// Well-known record field names.
const (
	FieldURN              = "urn"
	FieldType             = "type"
	FieldSiblings         = "siblings"
	FieldIsPrimary        = "isPrimary"
	FieldSiblingPlatforms = "siblingPlatforms"
	FieldExists           = "exists"
)

// DefaultIdentityField is the field holding a record's globally unique key.
const DefaultIdentityField = FieldURN

// SiblingGroup is the decoded view of a record's "siblings" field.
// Siblings holds the raw entries: full records or identity-only references.
type SiblingGroup struct {
	IsPrimary bool
	Siblings  []Object
}

// Identity returns the string stored under field, or "" if absent.
func Identity(obj Object, field string) string {
	s, _ := obj[field].(String)
	return string(s)
}

// SiblingGroupOf decodes the sibling group of a record.
// Returns ok=false when the record carries no sibling group object.
// Non-object entries in the sibling list are ignored.
func SiblingGroupOf(obj Object) (SiblingGroup, bool) {
	group, ok := obj[FieldSiblings].(Object)
	if !ok {
		return SiblingGroup{}, false
	}

	var sg SiblingGroup
	if b, ok := group[FieldIsPrimary].(Bool); ok {
		sg.IsPrimary = bool(b)
	}
	if list, ok := group[FieldSiblings].(Array); ok {
		for _, entry := range list {
			if sib, ok := entry.(Object); ok {
				sg.Siblings = append(sg.Siblings, sib)
			}
		}
	}
	return sg, true
}

// HasSiblings reports whether the record has a non-empty sibling list.
func HasSiblings(obj Object) bool {
	sg, ok := SiblingGroupOf(obj)
	return ok && len(sg.Siblings) > 0
}

// Exists reports the caller-supplied existence flag. Records without the
// flag count as existing since only some entity kinds carry it.
func Exists(obj Object) bool {
	b, ok := obj[FieldExists].(Bool)
	if !ok {
		return true
	}
	return bool(b)
}

// IsReference reports whether obj is an identity-only reference: it carries
// a non-empty identity and nothing else except, optionally, its type.
func IsReference(obj Object, identityField string) bool {
	if Identity(obj, identityField) == "" {
		return false
	}
	for k := range obj {
		if k != identityField && k != FieldType {
			return false
		}
	}
	return true
}
