package domain

import "time"

// ThresholdOperator is the comparator an AlertRule applies to its metric
// query result.
type ThresholdOperator string

const (
	ThresholdGreaterThan      ThresholdOperator = ">"
	ThresholdLessThan         ThresholdOperator = "<"
	ThresholdGreaterOrEqual   ThresholdOperator = ">="
	ThresholdLessOrEqual      ThresholdOperator = "<="
	ThresholdEqual            ThresholdOperator = "=="
)

// AlertRule is a self-polling metric rule: evaluated on an interval against
// a Prometheus-compatible data source, feeding any threshold breach through
// the same ingestion pipeline a pushed webhook alert takes. Adapted from
// the teacher's models.AlertRule, trimmed of the business-group/template
// joins this data model doesn't carry.
type AlertRule struct {
	ID                        string
	Name                      string
	Description               string
	Expression                string
	EvaluationIntervalSeconds int
	Severity                  Severity
	Service                   string
	Labels                    StringMap
	Annotations               StringMap
	DataSourceType            string // prometheus | victoria-metrics
	DataSourceURL             string
	Operator                  ThresholdOperator
	Threshold                 float64
	IsActive                  bool
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}
