package model

import (
	"fmt"
	"net/url"
	"strings"
)

// FormatIRI builds the canonical term IRI for an id within an ontology.
// EDAM topics and NCBI taxa have fixed IRI schemes; everything else falls
// back to a generic OBO PURL.
func FormatIRI(id string, ontology Ontology) string {
	switch ontology {
	case OntologyEDAM:
		return "http://edamontology.org/topic_" + id
	case OntologyNCBITaxon:
		return "http://purl.obolibrary.org/obo/NCBITaxon_" + id
	default:
		return fmt.Sprintf("http://purl.obolibrary.org/obo/%s_%s", strings.ToUpper(string(ontology)), id)
	}
}

// DoubleEncodeIRI URL-encodes an IRI twice, as the OLS API requires for
// IRIs embedded in a path segment.
func DoubleEncodeIRI(iri string) string {
	return url.QueryEscape(url.QueryEscape(iri))
}
