package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	GradeAttemptsQueue  string
	BandResultsQueue    string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	GradeAttemptsQueue:  "grade_attempts_queue",
	BandResultsQueue:    "band_results_queue",
}
