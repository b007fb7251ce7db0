package dto

// --- Auth forms ---

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type ClientLoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type SignupRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// --- Conversations ---

type ChatMessageRequest struct {
	Message string `json:"message" form:"message"`
}

// FinishChatRequest closes a support conversation with an NPS score.
type FinishChatRequest struct {
	Score *int `json:"score" form:"score" validate:"required,min=0,max=10"`
}

// --- Support wizard ---

type WizardModeRequest struct {
	Mode string `json:"mode" form:"mode" validate:"required,oneof=support invoice"`
}

type WizardEmailRequest struct {
	Email string `json:"email" form:"email"`
}

type WizardTicketRequest struct {
	Message string `json:"message" form:"message"`
}

// --- Admin writes ---

type CreateTicketRequest struct {
	ClienteID int    `json:"cliente_id" form:"cliente_id" validate:"required,gt=0"`
	Canal     string `json:"canal" form:"canal" validate:"required,oneof=site whatsapp email telefone"`
	Mensagem  string `json:"mensagem" form:"mensagem" validate:"required"`
}

type CreateClientRequest struct {
	Nome           string `json:"nome" form:"nome" validate:"required"`
	Email          string `json:"email" form:"email" validate:"required,email"`
	Password       string `json:"password" form:"password" validate:"required,min=6"`
	Telefone       string `json:"telefone" form:"telefone"`
	CanalPreferido string `json:"canal_preferido" form:"canal_preferido" validate:"required,oneof=site whatsapp email telefone"`
}

// --- Settings ---

type LogQuery struct {
	Level  string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// --- Internal bus ---

// RefreshMessage asks every open dashboard of a browser to reload.
type RefreshMessage struct {
	SID    string `json:"sid"`
	Reason string `json:"reason"`
}
