package config

const (
	folderEnvVar = "FOLDER"
	serverURLVar = "SERVER_URL"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetDataFolder is where the client keeps its persisted login record.
func (Client) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (Client) GetServerURL() string {
	return GetEnv(serverURLVar, "http://localhost:8080")
}
