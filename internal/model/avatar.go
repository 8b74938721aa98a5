package model

type Avatar struct {
	Filename string
	Content  []byte

	Username string
}

func (a Avatar) GetFilename() string {
	return a.Filename
}

func (a Avatar) GetContent() []byte {
	return a.Content
}

func (a Avatar) GetParent() string {
	return a.Username
}

func (a *Avatar) NewFromData(content []byte, name string) FileObject {
	return &Avatar{
		Content:  content,
		Filename: name,
	}
}
