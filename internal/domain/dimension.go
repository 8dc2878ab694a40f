package domain

// Dimension is a named scale along which resources are assessed.
type Dimension struct {
	Name     string  `json:"name" yaml:"name"`
	Range    Address `json:"range_eh" yaml:"range_eh"`
	Computed bool    `json:"computed" yaml:"computed"`
}

// EntryType implements ledger.Entity.
func (Dimension) EntryType() string { return "dimension" }
