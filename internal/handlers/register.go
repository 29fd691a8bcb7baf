package handlers

import "github.com/phenopredict/phenogate/internal/task"

// Register wires every known task name to its handler. The registry is
// built once at startup; there is no import-time registration.
func Register(reg *task.Registry, auth *AuthClient, trait *TraitHandler) {
	reg.Register(TaskAuthSignup, auth.Signup)
	reg.Register(TaskAuthVerify, auth.Verify)
	reg.Register(TaskAuthLogin, auth.Login)
	reg.Register(TaskTraitPredict, trait.Predict)
}
