package domain

// NotificationMessage: 通过消息队列发给 notify worker 的消息
type NotificationMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RunCompletedMailData struct {
	FullName     string  `json:"fullName"`
	PlanName     string  `json:"planName"`
	FinalBalance float64 `json:"finalBalance"`
	WorkDays     int     `json:"workDays"`
	Violations   int     `json:"violations"`
}

type RunFailedMailData struct {
	FullName string `json:"fullName"`
	PlanName string `json:"planName"`
	Reason   string `json:"reason"`
}
