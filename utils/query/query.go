package queryHelper

import (
	"fmt"
	"reflect"
	"strings"
)

// UpdateQueryBuilder builds an UPDATE statement for the struct in data,
// using lowercased field names as columns and $n placeholders. Zero-value
// fields and the identifier column are skipped, so partial updates only
// touch what the caller set.
func UpdateQueryBuilder(tableName string, identifier string, id int64, data interface{}) (string, []interface{}) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET ", tableName)

	values := []interface{}{}
	v := reflect.ValueOf(data)

	for i := 0; i < v.NumField(); i++ {
		column := strings.ToLower(v.Type().Field(i).Name)
		if column == identifier {
			continue
		}
		if v.Field(i).IsZero() {
			continue
		}
		if len(values) > 0 {
			sb.WriteString(", ")
		}
		values = append(values, v.Field(i).Interface())
		fmt.Fprintf(&sb, "%s=$%d", column, len(values))
	}

	fmt.Fprintf(&sb, " WHERE %s=$%d;", identifier, len(values)+1)
	values = append(values, id)

	return sb.String(), values
}
