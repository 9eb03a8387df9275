package utils

import (
	"fmt"
	"math/rand"

	"golang.org/x/crypto/bcrypt"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

var firstNames = []string{
	"James", "Martin", "Peter", "Laszlo", "Gabor", "Daniel", "Andras",
	"Tom", "Balazs", "Zoltan", "Mark", "Adam", "Istvan", "Bence", "Attila",
}
var lastNames = []string{
	"Kovacs", "Nagy", "Szabo", "Toth", "Horvath", "Varga", "Kiss",
	"Molnar", "Nemeth", "Farkas", "Balogh", "Papp", "Lakatos", "Juhasz",
}

func GenerateRandomFullName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

func GenerateUsernameFromFullName(fullName string) string {
	username := ""
	for _, r := range fullName {
		if r == ' ' {
			continue
		}
		username += string(r | 0x20)
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomFullName()
	username := GenerateUsernameFromFullName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:      username,
		PasswordHash:  string(passwordHash),
		FullName:      fullName,
		Email:         username + "@" + emailDomainName,
		Role:          domain.RoleFirefighter,
		NotifyChannel: domain.NotifyByEmail,
	}

	return user, nil
}

var digits = "0123456789"

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}
