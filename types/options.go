package types

// Order represents sort direction.
type Order string

const (
	ASC  Order = "ASC"
	DESC Order = "DESC"
)

// OrderTerm is one entry of an ORDER BY list. Path carries the relation
// chain for sorts on a related model's column ("author.name" becomes
// Path=["author"], Field="name"); it is empty for root columns.
type OrderTerm struct {
	Field     string
	Direction Order
	Path      []string
}

// Include describes one relation to join into a query, with the nested
// options for the related model's subtree.
type Include struct {
	As         string // relation alias on the parent model
	Model      string // target model name
	Required   bool   // inner join when true, left join otherwise
	Paranoid   bool   // exclude soft-deleted relation rows
	Where      Condition
	Attributes []string
	Include    []Include
}

// QueryOptions is the compiled bundle handed to the query executor.
// It is constructed fresh per call and owned by the caller after return.
type QueryOptions struct {
	Attributes []string
	Include    []Include
	Where      Condition
	Order      []OrderTerm
	Paranoid   bool
}

// FindInclude returns the include with the given alias, or nil.
func (o *QueryOptions) FindInclude(alias string) *Include {
	for i := range o.Include {
		if o.Include[i].As == alias {
			return &o.Include[i]
		}
	}
	return nil
}
