package config

type WorkerKeyStruct struct {
	PersistCodeRunsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistCodeRunsQueue: "persist_code_runs_queue",
}
