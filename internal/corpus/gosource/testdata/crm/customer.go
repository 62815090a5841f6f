package crm

//meta:role customer
//meta:name Client
type Customer struct {
	ID    int64  `meta:"id"`
	Email string `json:"email,omitempty" meta:"unique,optional=false"`
}
