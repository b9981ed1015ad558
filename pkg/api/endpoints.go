package api

import "fmt"

// Endpoint paths, relative to the configured base URL.
const (
	PathLogin            = "/api/v1/auth/login"
	PathRegister         = "/api/v1/auth/register"
	PathLogout           = "/api/v1/auth/logout"
	PathRefreshToken     = "/api/v1/auth/refresh-token"
	PathCheckEmailExists = "/api/v1/auth/check-email-exists"

	PathProfile      = "/api/v1/users/me"
	PathUploadAvatar = "/api/v1/users/me/avatar"

	PathHotels    = "/api/v1/hotels"
	PathChatRooms = "/api/v1/chat-rooms"
	PathRoles     = "/api/v1/roles"

	PathSignupCodes        = "/api/v1/sign-up-codes"
	PathGenerateSignupCode = "/api/v1/sign-up-codes/generate"
)

// HotelPath addresses a single hotel.
func HotelPath(id int) string {
	return fmt.Sprintf("%s/%d", PathHotels, id)
}

// HotelChatRoomPath resolves the chat room attached to a hotel.
func HotelChatRoomPath(id int) string {
	return fmt.Sprintf("%s/%d/chatroom", PathHotels, id)
}

// ChatRoomPath addresses a single chat room.
func ChatRoomPath(id int) string {
	return fmt.Sprintf("%s/%d", PathChatRooms, id)
}

// ChatRoomMessagesPath lists or creates messages inside a room.
func ChatRoomMessagesPath(id int) string {
	return fmt.Sprintf("%s/%d/messages", PathChatRooms, id)
}

// FavouritesPath lists or mutates a user's favourite hotels. The server
// accepts the literal id "me" for the authenticated user.
func FavouritesPath(userID string) string {
	return fmt.Sprintf("/api/v1/users/%s/favourites", userID)
}

// FavouriteCheckPath asks whether a hotel is already favourited.
func FavouriteCheckPath(userID string) string {
	return FavouritesPath(userID) + "/check"
}

// SignupCodePath addresses a single sign-up code.
func SignupCodePath(id int) string {
	return fmt.Sprintf("%s/%d", PathSignupCodes, id)
}
