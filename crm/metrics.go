package crm

import "github.com/prometheus/client_golang/prometheus"

var (
	callsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxdesk_client_saves_total",
			Help: "Client interactions saved, by resulting status",
		},
		[]string{"status"},
	)
	emailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxdesk_emails_sent_total",
		Help: "Templated emails sent from the desk",
	})
	emailsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxdesk_emails_failed_total",
		Help: "Templated emails that could not be composed or sent",
	})
)

func init() {
	prometheus.MustRegister(callsSaved, emailsSent, emailsFailed)
}
