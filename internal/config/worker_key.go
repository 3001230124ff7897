package config

type WorkerKeyStruct struct {
	RecordAttemptsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	RecordAttemptsQueue: "record_attempts_queue",
}
