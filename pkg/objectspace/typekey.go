package objectspace

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// TypeKey identifies one type's partition of a Space. The reflect.Type is
// what actually selects the partition; the UUID is assigned once per type
// the first time it's written or queried and exists purely so log lines
// can name a partition without printing a raw reflect.Type pointer, the
// same role google/uuid plays for principal and
// session identifiers elsewhere.
type TypeKey struct {
	Type reflect.Type
	ID   uuid.UUID
}

func newTypeKey(t reflect.Type) TypeKey {
	return TypeKey{Type: t, ID: uuid.New()}
}

func (k TypeKey) String() string {
	if k.Type == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%s", k.Type.String(), k.ID.String()[:8])
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
