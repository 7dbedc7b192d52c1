package dto

type SignInInput struct {
	Email    string
	Password string
}

type SignUpInput struct {
	Email    string
	Password string
	Username string
}

type UserOutput struct {
	ID       string
	Email    string
	Username string
}

type SignUpOutput struct {
	Message string
	User    UserOutput
}
