// Package internaldefs holds the metric families shared by the Prometheus and OTel
// exporters so both publish identical names, labels and bucket bounds.
package internaldefs
