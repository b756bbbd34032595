package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Taxonomy holds the keyword lists that drive invoice-level category
// defaulting and the known-vendor allow-list for PDF header recovery. The
// compiled-in defaults match the Costa Rican deployment; a YAML file can
// override any list per installation.
type Taxonomy struct {
	GroceryKeywords []string `yaml:"grocery_keywords"`
	GenericKeywords []string `yaml:"generic_keywords"`
	PayrollKeywords []string `yaml:"payroll_keywords"`
	KnownVendors    []string `yaml:"known_vendors"`
}

func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		GroceryKeywords: []string{
			"compra", "mercadería", "inventario", "costo de venta", "producto", "mercancía",
		},
		GenericKeywords: []string{
			"otros gastos", "gastos varios", "gastos generales", "otros",
		},
		PayrollKeywords: []string{
			"salario", "nómina",
		},
		KnownVendors: []string{
			"CLARO CR TELECOMUNICACIONES",
			"CORPORACION SUPERMERCADOS UNIDOS",
			"WAL MART",
			"WALMART",
		},
	}
}

// LoadTaxonomy reads a YAML taxonomy file and fills any empty list from the
// defaults. An empty path returns the defaults unchanged.
func LoadTaxonomy(path string) (Taxonomy, error) {
	tax := DefaultTaxonomy()
	if path == "" {
		return tax, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy file: %w", err)
	}

	var loaded Taxonomy
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy file: %w", err)
	}

	if len(loaded.GroceryKeywords) > 0 {
		tax.GroceryKeywords = loaded.GroceryKeywords
	}
	if len(loaded.GenericKeywords) > 0 {
		tax.GenericKeywords = loaded.GenericKeywords
	}
	if len(loaded.PayrollKeywords) > 0 {
		tax.PayrollKeywords = loaded.PayrollKeywords
	}
	if len(loaded.KnownVendors) > 0 {
		tax.KnownVendors = loaded.KnownVendors
	}
	return tax, nil
}
