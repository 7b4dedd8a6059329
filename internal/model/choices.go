package model

// Choice fields are stored as stable string codes. Every enum here is closed:
// handlers validate inbound values with Valid() and services switch
// exhaustively on the members below.

type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionPaused  SessionStatus = "paused"
	SessionEnded   SessionStatus = "ended"
	SessionExpired SessionStatus = "expired"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionActive, SessionPaused, SessionEnded, SessionExpired:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed. Transitions are
// monotonic except active<->paused; ended and expired are terminal.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	if !to.Valid() || s == to {
		return false
	}
	switch s {
	case SessionActive:
		return to == SessionPaused || to == SessionEnded || to == SessionExpired
	case SessionPaused:
		return to == SessionActive || to == SessionEnded || to == SessionExpired
	case SessionEnded, SessionExpired:
		return false
	}
	return false
}

type MessageType string

const (
	MessageUserQuery     MessageType = "user_query"
	MessageAIResponse    MessageType = "ai_response"
	MessageSystemMessage MessageType = "system_message"
	MessageErrorMessage  MessageType = "error_message"
)

func (m MessageType) Valid() bool {
	switch m {
	case MessageUserQuery, MessageAIResponse, MessageSystemMessage, MessageErrorMessage:
		return true
	}
	return false
}

type QueryCategory string

const (
	QueryGeneral         QueryCategory = "general"
	QuerySubjectSpecific QueryCategory = "subject_specific"
	QueryCurrentAffairs  QueryCategory = "current_affairs"
	QueryExamStrategy    QueryCategory = "exam_strategy"
	QueryPreviousYear    QueryCategory = "previous_year"
)

func (q QueryCategory) Valid() bool {
	switch q {
	case QueryGeneral, QuerySubjectSpecific, QueryCurrentAffairs, QueryExamStrategy, QueryPreviousYear:
		return true
	}
	return false
}

type ExamType string

const (
	ExamUPSCCSE  ExamType = "upsc_cse"
	ExamUPSCCDS  ExamType = "upsc_cds"
	ExamUPSCCAPF ExamType = "upsc_capf"
	ExamUPSCIES  ExamType = "upsc_ies"
	ExamUPSCIFS  ExamType = "upsc_ifs"
	ExamUPSCNDA  ExamType = "upsc_nda"
	ExamStatePSC ExamType = "state_psc"
	ExamOther    ExamType = "other"
)

func (e ExamType) Valid() bool {
	switch e {
	case ExamUPSCCSE, ExamUPSCCDS, ExamUPSCCAPF, ExamUPSCIES, ExamUPSCIFS, ExamUPSCNDA, ExamStatePSC, ExamOther:
		return true
	}
	return false
}

type SubjectType string

const (
	SubjectHistory        SubjectType = "history"
	SubjectGeography      SubjectType = "geography"
	SubjectPolity         SubjectType = "polity"
	SubjectEconomics      SubjectType = "economics"
	SubjectScience        SubjectType = "science"
	SubjectEnvironment    SubjectType = "environment"
	SubjectEthics         SubjectType = "ethics"
	SubjectEssay          SubjectType = "essay"
	SubjectCSAT           SubjectType = "csat"
	SubjectMathematics    SubjectType = "mathematics"
	SubjectEnglish        SubjectType = "english"
	SubjectHindi          SubjectType = "hindi"
	SubjectReasoning      SubjectType = "reasoning"
	SubjectCurrentAffairs SubjectType = "current_affairs"
	SubjectGeneral        SubjectType = "general"
	SubjectOther          SubjectType = "other"
)

func (s SubjectType) Valid() bool {
	switch s {
	case SubjectHistory, SubjectGeography, SubjectPolity, SubjectEconomics,
		SubjectScience, SubjectEnvironment, SubjectEthics, SubjectEssay,
		SubjectCSAT, SubjectMathematics, SubjectEnglish, SubjectHindi,
		SubjectReasoning, SubjectCurrentAffairs, SubjectGeneral, SubjectOther:
		return true
	}
	return false
}

type ResponseType string

const (
	ResponseText  ResponseType = "text"
	ResponseCode  ResponseType = "code"
	ResponseTable ResponseType = "table"
	ResponseList  ResponseType = "list"
	ResponseMixed ResponseType = "mixed"
)

func (r ResponseType) Valid() bool {
	switch r {
	case ResponseText, ResponseCode, ResponseTable, ResponseList, ResponseMixed:
		return true
	}
	return false
}

type UserFeedback string

const (
	FeedbackHelpful          UserFeedback = "helpful"
	FeedbackNotHelpful       UserFeedback = "not_helpful"
	FeedbackPartiallyHelpful UserFeedback = "partially_helpful"
	FeedbackNeedsImprovement UserFeedback = "needs_improvement"
	FeedbackNone             UserFeedback = "no_feedback"
)

func (f UserFeedback) Valid() bool {
	switch f {
	case FeedbackHelpful, FeedbackNotHelpful, FeedbackPartiallyHelpful, FeedbackNeedsImprovement, FeedbackNone:
		return true
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
	DifficultyExpert DifficultyLevel = "expert"
)

func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionLongAnswer     QuestionType = "long_answer"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionMatching       QuestionType = "matching"
)

func (q QuestionType) Valid() bool {
	switch q {
	case QuestionMultipleChoice, QuestionShortAnswer, QuestionLongAnswer, QuestionTrueFalse, QuestionMatching:
		return true
	}
	return false
}
