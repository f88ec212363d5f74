package practice

import "github.com/prometheus/client_golang/prometheus"

var (
	tasksGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxdesk_tasks_generated_total",
		Help: "Tasks created by the recurring task generator",
	})
	portalUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxdesk_portal_uploads_total",
			Help: "Files received through public upload links, by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(tasksGenerated, portalUploads)
}
