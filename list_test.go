package coroo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEmptyOnInit(t *testing.T) {
	var l list
	initList(&l)
	assert.True(t, l.empty())
}

func TestListPushBackPopFrontFIFO(t *testing.T) {
	var l list
	initList(&l)

	var a, b, c listElem
	l.pushBack(&a, "a")
	l.pushBack(&b, "b")
	l.pushBack(&c, "c")
	require.False(t, l.empty())

	assert.Equal(t, "a", l.popFront().self)
	assert.Equal(t, "b", l.popFront().self)
	assert.Equal(t, "c", l.popFront().self)
	assert.True(t, l.empty())
}

func TestListPushFrontLIFO(t *testing.T) {
	var l list
	initList(&l)

	var a, b listElem
	l.pushFront(&a, "a")
	l.pushFront(&b, "b")

	assert.Equal(t, "b", l.popFront().self)
	assert.Equal(t, "a", l.popFront().self)
}

func TestListPopBack(t *testing.T) {
	var l list
	initList(&l)

	var a, b listElem
	l.pushBack(&a, "a")
	l.pushBack(&b, "b")

	assert.Equal(t, "b", l.popBack().self)
	assert.Equal(t, "a", l.popBack().self)
}

func TestListRemoveMiddle(t *testing.T) {
	var l list
	initList(&l)

	var a, b, c listElem
	l.pushBack(&a, "a")
	l.pushBack(&b, "b")
	l.pushBack(&c, "c")

	listRemove(&b)

	assert.Equal(t, "a", l.popFront().self)
	assert.Equal(t, "c", l.popFront().self)
	assert.True(t, l.empty())
}

func TestListRemoveClearsElement(t *testing.T) {
	var l list
	initList(&l)

	var a listElem
	l.pushBack(&a, "a")
	listRemove(&a)

	assert.Nil(t, a.prev)
	assert.Nil(t, a.next)
	assert.Nil(t, a.self)
}
