package models

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	// TierFirst is the initially assigned responder.
	TierFirst = 1
	// TierSecond and TierThird are organization contacts.
	TierSecond = 2
	TierThird  = 3
	// TierEscalated means the terminal alert has fired; no further timers
	// are armed and the request waits for a human.
	TierEscalated = 4
)

const (
	DecisionApproved = StatusApproved
	DecisionRejected = StatusRejected
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DefaultCorrelationTTL время жизни записи о последнем промпте в Redis
	DefaultCorrelationTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultEscalationTimeout окно ответа одного уровня эскалации
	DefaultEscalationTimeout = 30 * 60 // 30 минут в секундах

	// ReconcileHour час запуска сверки с таблицей мест
	ReconcileHour = 6

	// DefaultReconcileAfterDays сколько дней ждать перед освобождением места
	DefaultReconcileAfterDays = 1

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000
)
