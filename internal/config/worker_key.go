package config

type WorkerKeyStruct struct {
	PersistAnswerLogsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswerLogsQueue: "persist_answer_logs_queue",
}
