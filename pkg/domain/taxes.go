package domain

// TaxType identifies the tax classification a plugin assigned to a product.
type TaxType struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ObjectMeta is the free-form metadata attached to catalog objects.
// Tax plugins store their product tax codes here.
type ObjectMeta map[string]string

// Get returns the value stored under key, or the fallback when absent.
func (m ObjectMeta) Get(key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// Set stores a value under key, allocating the map when needed.
func (m *ObjectMeta) Set(key, value string) {
	if *m == nil {
		*m = make(ObjectMeta)
	}
	(*m)[key] = value
}
