// Package alerts implements threshold alerting over the headline KPI
// rollup. Rules are re-evaluated after every snapshot swap; firing and
// resolving alerts are delivered to Slack, Teams or generic HTTP
// webhook targets.
package alerts
